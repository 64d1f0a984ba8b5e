package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanReview(t *testing.T) {
	tests := []struct {
		name    string
		domain  Domain
		from    Status
		to      Status
		wantErr bool
	}{
		{"payment pending to verified", DomainPayment, StatusPending, StatusVerified, false},
		{"payment pending to rejected", DomainPayment, StatusPending, StatusRejected, false},
		{"abstract pending to approved", DomainAbstract, StatusPending, StatusApproved, false},
		{"abstract pending to rejected", DomainAbstract, StatusPending, StatusRejected, false},
		{"payment cannot be approved", DomainPayment, StatusPending, StatusApproved, true},
		{"abstract cannot be verified", DomainAbstract, StatusPending, StatusVerified, true},
		{"terminal verified is final", DomainPayment, StatusVerified, StatusRejected, true},
		{"rejected is not reviewable", DomainAbstract, StatusRejected, StatusApproved, true},
		{"not uploaded is not reviewable", DomainPayment, StatusNotUploaded, StatusVerified, true},
		{"back to pending is not a review", DomainAbstract, StatusPending, StatusPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanReview(tt.domain, tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, KindConflict, KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanUpload(t *testing.T) {
	for _, s := range DomainAbstract.Statuses() {
		assert.NoError(t, CanUpload(DomainAbstract, s), "abstract from %s", s)
	}
	assert.NoError(t, CanUpload(DomainPayment, StatusNotUploaded))
	assert.NoError(t, CanUpload(DomainPayment, StatusPending))
	assert.NoError(t, CanUpload(DomainPayment, StatusRejected))
	assert.ErrorIs(t, CanUpload(DomainPayment, StatusVerified), ErrUploadNotAllowed)

	for _, s := range DomainPayment.Statuses() {
		assert.Equal(t, StatusPending, AfterUpload(s))
	}
}

func TestStatusFlags(t *testing.T) {
	tests := []struct {
		status      Status
		terminal    bool
		hasArtifact bool
	}{
		{StatusNotUploaded, false, false},
		{StatusPending, false, true},
		{StatusVerified, true, true},
		{StatusApproved, true, true},
		{StatusRejected, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.hasArtifact, tt.status.HasArtifact())
		})
	}
}

func TestAbstractUnlocked(t *testing.T) {
	assert.True(t, AbstractUnlocked(StatusVerified))
	assert.False(t, AbstractUnlocked(StatusNotUploaded))
	assert.False(t, AbstractUnlocked(StatusPending))
	assert.False(t, AbstractUnlocked(StatusRejected))
	assert.False(t, AbstractUnlocked(""))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(DomainPayment, "verified")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, st)

	_, err = ParseStatus(DomainPayment, "approved")
	assert.Error(t, err)

	_, err = ParseStatus(DomainAbstract, "verified")
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		domain  Domain
		ct      string
		size    int64
		wantErr error
	}{
		{"payment jpeg 2MB", DomainPayment, "image/jpeg", 2 * mib, nil},
		{"payment jpg alias", DomainPayment, "image/jpg", mib, nil},
		{"payment png at limit", DomainPayment, "image/png", 5 * mib, nil},
		{"payment pdf with params", DomainPayment, "application/pdf; charset=binary", 10, nil},
		{"payment over limit", DomainPayment, "application/pdf", 5*mib + 1, ErrFileTooLarge},
		{"payment docx rejected", DomainPayment, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 10, ErrInvalidFileType},
		{"payment gif rejected", DomainPayment, "image/gif", 10, ErrInvalidFileType},
		{"abstract pdf 3MB", DomainAbstract, "application/pdf", 3 * mib, nil},
		{"abstract doc", DomainAbstract, "application/msword", mib, nil},
		{"abstract docx at limit", DomainAbstract, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 10 * mib, nil},
		{"abstract pdf 12MB", DomainAbstract, "application/pdf", 12 * mib, ErrFileTooLarge},
		{"abstract jpeg rejected", DomainAbstract, "image/jpeg", mib, ErrInvalidFileType},
		{"type checked before size", DomainAbstract, "image/png", 20 * mib, ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.domain, tt.ct, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestValidateAbstractMeta(t *testing.T) {
	full := AbstractMeta{
		Title:       "Solar microgrids",
		Authors:     "A. Bello, C. Okafor",
		Affiliation: "University of Lagos",
		Subtheme:    SubthemeGreenTechnology,
	}
	assert.NoError(t, ValidateAbstractMeta(full))

	missing := full
	missing.Authors = "   "
	err := ValidateAbstractMeta(missing)
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Contains(t, err.Error(), "authors")

	bad := full
	bad.Subtheme = "astrology"
	assert.ErrorIs(t, ValidateAbstractMeta(bad), ErrInvalidSubtheme)
}

func TestValidateReason(t *testing.T) {
	assert.ErrorIs(t, ValidateReason(""), ErrMissingReason)
	assert.ErrorIs(t, ValidateReason(" \t\n"), ErrMissingReason)
	assert.NoError(t, ValidateReason("Out of scope"))
}

func TestBadgeFor_Total(t *testing.T) {
	for _, d := range []Domain{DomainPayment, DomainAbstract} {
		for _, s := range d.Statuses() {
			b := BadgeFor(d, s)
			assert.Equal(t, s, b.Status)
			assert.NotEmpty(t, b.Label)
			assert.NotEmpty(t, b.Tone)
		}
	}
	assert.Equal(t, ToneDanger, BadgeFor(DomainPayment, StatusRejected).Tone)
	assert.Equal(t, "weird", BadgeFor(DomainPayment, "weird").Label)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("", "anything"))
	assert.True(t, Matches("OKAFOR", "Chidi Okafor", "x@y.z"))
	assert.True(t, Matches("pend", "pending"))
	assert.False(t, Matches("verified", "Ada", "ada@example.com", "pending"))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("submission.UploadReceipt: %w", ErrStorageWriteFailed)
	assert.Equal(t, KindRemoteWrite, KindOf(wrapped))
	assert.Equal(t, KindAuthorization, KindOf(ErrGateLocked))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("auth.Register: %w", ErrEmailTaken)))
	assert.Equal(t, KindUnauthenticated, KindOf(ErrInvalidCredentials))
	assert.Equal(t, "Upload failed", KindRemoteWrite.Title())
	assert.Equal(t, "Sign in failed", KindUnauthenticated.Title())
}
