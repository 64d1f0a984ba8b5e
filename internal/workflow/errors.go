package workflow

import "errors"

// Kind — класс ошибки, по которому HTTP-слой выбирает код ответа.
type Kind int

const (
	KindUnknown Kind = iota
	// локальная проверка не пройдена, сетевых вызовов не было
	KindValidation
	// запись в объектное хранилище или в таблицу не удалась
	KindRemoteWrite
	// нет прав на действие
	KindAuthorization
	// переход недопустим в текущем состоянии
	KindConflict
	KindNotFound
	// неверные учётные данные или токен
	KindUnauthenticated
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrMissingFields   = errors.New("missing required fields")
	ErrMissingFile     = errors.New("no file selected")
	ErrInvalidSubtheme = errors.New("invalid subtheme")
	ErrMissingReason   = errors.New("missing reason")

	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrRowWriteFailed     = errors.New("row write failed")

	ErrForbidden  = errors.New("access denied")
	ErrGateLocked = errors.New("abstract submission is locked until payment is verified")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUploadNotAllowed  = errors.New("upload not allowed")

	ErrNotFound = errors.New("not found")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidFileType, KindValidation},
	{ErrFileTooLarge, KindValidation},
	{ErrMissingFields, KindValidation},
	{ErrMissingFile, KindValidation},
	{ErrInvalidSubtheme, KindValidation},
	{ErrMissingReason, KindValidation},
	{ErrStorageWriteFailed, KindRemoteWrite},
	{ErrRowWriteFailed, KindRemoteWrite},
	{ErrForbidden, KindAuthorization},
	{ErrGateLocked, KindAuthorization},
	{ErrInvalidTransition, KindConflict},
	{ErrUploadNotAllowed, KindConflict},
	{ErrNotFound, KindNotFound},
	{ErrEmailTaken, KindConflict},
	{ErrInvalidCredentials, KindUnauthenticated},
}

// KindOf определяет класс ошибки, в том числе обёрнутой через %w.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Title возвращает короткий заголовок уведомления для класса ошибки.
func (k Kind) Title() string {
	switch k {
	case KindValidation:
		return "Validation failed"
	case KindRemoteWrite:
		return "Upload failed"
	case KindAuthorization:
		return "Access denied"
	case KindConflict:
		return "Action not allowed"
	case KindNotFound:
		return "Not found"
	case KindUnauthenticated:
		return "Sign in failed"
	}
	return "Error"
}
