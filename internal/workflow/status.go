// Package workflow описывает машину состояний заявок (квитанция об оплате
// и тезисы доклада), правила проверки загружаемых файлов и классификацию
// ошибок предметной области. Пакет не обращается к сети и хранилищу.
package workflow

import "fmt"

// Domain — тип заявки.
type Domain string

const (
	// DomainPayment — квитанция об оплате регистрационного взноса.
	DomainPayment Domain = "payment"
	// DomainAbstract — тезисы доклада.
	DomainAbstract Domain = "abstract"
)

// Status — состояние заявки. Набор допустимых значений зависит от Domain.
type Status string

const (
	StatusNotUploaded Status = "not_uploaded"
	StatusPending     Status = "pending"
	StatusVerified    Status = "verified" // только для оплаты
	StatusApproved    Status = "approved" // только для тезисов
	StatusRejected    Status = "rejected"
)

// Statuses возвращает допустимые состояния домена в порядке жизненного цикла.
func (d Domain) Statuses() []Status {
	switch d {
	case DomainPayment:
		return []Status{StatusNotUploaded, StatusPending, StatusVerified, StatusRejected}
	case DomainAbstract:
		return []Status{StatusNotUploaded, StatusPending, StatusApproved, StatusRejected}
	}
	return nil
}

// ApprovedStatus возвращает положительное терминальное состояние домена.
func (d Domain) ApprovedStatus() Status {
	if d == DomainPayment {
		return StatusVerified
	}
	return StatusApproved
}

// Bucket возвращает имя бакета объектного хранилища для домена.
func (d Domain) Bucket() string {
	if d == DomainPayment {
		return "receipts"
	}
	return "abstracts"
}

// Valid сообщает, принадлежит ли состояние домену.
func (d Domain) Valid(s Status) bool {
	for _, st := range d.Statuses() {
		if st == s {
			return true
		}
	}
	return false
}

// ParseStatus разбирает строковое состояние из хранилища.
func ParseStatus(d Domain, s string) (Status, error) {
	st := Status(s)
	if !d.Valid(st) {
		return "", fmt.Errorf("workflow.ParseStatus: unknown %s status %q", d, s)
	}
	return st, nil
}

// IsTerminal сообщает, является ли состояние итоговым решением проверяющего.
func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusApproved || s == StatusRejected
}

// HasArtifact сообщает, должна ли у заявки в этом состоянии быть ссылка на файл.
func (s Status) HasArtifact() bool {
	return s != StatusNotUploaded
}

// CanReview проверяет переход, инициированный проверяющим.
// Допустимы только pending → approved|verified и pending → rejected.
func CanReview(d Domain, from, to Status) error {
	if !d.Valid(from) || !d.Valid(to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, d, from, to)
	}
	if from != StatusPending {
		return fmt.Errorf("%w: %s is %s, not pending", ErrInvalidTransition, d, from)
	}
	if !to.IsTerminal() {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, d, from, to)
	}
	return nil
}

// CanUpload проверяет, можно ли загрузить (или перезагрузить) файл
// при текущем состоянии заявки. Подтверждённую оплату перезагрузить нельзя,
// тезисы можно отправить повторно в любом состоянии.
func CanUpload(d Domain, current Status) error {
	switch d {
	case DomainPayment:
		if current == StatusVerified {
			return fmt.Errorf("%w: payment already verified", ErrUploadNotAllowed)
		}
		return nil
	case DomainAbstract:
		return nil
	}
	return fmt.Errorf("%w: unknown domain %q", ErrUploadNotAllowed, d)
}

// AfterUpload возвращает состояние заявки после успешной загрузки.
func AfterUpload(Status) Status {
	return StatusPending
}

// AbstractUnlocked — условие допуска к отправке тезисов:
// оплата участника подтверждена.
func AbstractUnlocked(payment Status) bool {
	return payment == StatusVerified
}
