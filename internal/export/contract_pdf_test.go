package export

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoan(t *testing.T, term int) *domain.Loan {
	t.Helper()
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := domain.GenerateSchedule(decimal.NewFromInt(1000), decimal.NewFromInt(12), term, start, domain.MethodCompound)
	require.NoError(t, err)
	return &domain.Loan{
		ID:         uuid.MustParse("6f1c2a8e-6f0b-4b7e-9a53-2a1d5a0c9e11"),
		ClientID:   uuid.New(),
		Principal:  decimal.NewFromInt(1000),
		AnnualRate: decimal.NewFromInt(12),
		TermMonths: term,
		StartDate:  start,
		Method:     domain.MethodCompound,
		Schedule:   schedule,
		Status:     domain.LoanActive,
	}
}

func naturalClient() *domain.Client {
	return &domain.Client{
		ID:       uuid.New(),
		Document: domain.Document{Type: domain.DocumentDNI, Number: "12345678"},
		Party:    domain.NaturalPerson{GivenNames: "José", FamilyNames: "Pérez Núñez"},
		Contact:  domain.Contact{Phone: "987654321", Address: "Av. Arequipa 123, Lima"},
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	r, err := NewContractRenderer("PréstamosPro", "")
	require.NoError(t, err)
	assert.False(t, r.HasLogo())

	out, err := r.Render(testLoan(t, 12), naturalClient(), time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRender_LongScheduleSpansPages(t *testing.T) {
	r, err := NewContractRenderer("PréstamosPro", "")
	require.NoError(t, err)

	short, err := r.Render(testLoan(t, 6), naturalClient(), time.Now())
	require.NoError(t, err)
	long, err := r.Render(testLoan(t, 120), naturalClient(), time.Now())
	require.NoError(t, err)

	assert.Greater(t, len(long), len(short))
}

func TestRender_LegalEntity(t *testing.T) {
	r, err := NewContractRenderer("PréstamosPro", "")
	require.NoError(t, err)

	client := &domain.Client{
		Document: domain.Document{Type: domain.DocumentRUC, Number: "20123456789"},
		Party:    domain.LegalEntity{BusinessName: "Comercial Andina SAC"},
	}
	out, err := r.Render(testLoan(t, 3), client, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRender_MissingInputs(t *testing.T) {
	r, err := NewContractRenderer("PréstamosPro", "")
	require.NoError(t, err)

	_, err = r.Render(nil, naturalClient(), time.Now())
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	_, err = r.Render(testLoan(t, 3), nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestNewContractRenderer_WithLogo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(imaging.New(1200, 400, color.NRGBA{R: 20, G: 60, B: 200, A: 255}), path))

	r, err := NewContractRenderer("PréstamosPro", path)
	require.NoError(t, err)
	require.True(t, r.HasLogo())

	logo, err := imaging.Decode(bytes.NewReader(r.logo))
	require.NoError(t, err)
	assert.LessOrEqual(t, logo.Bounds().Dx(), LogoMaxWidth)
	assert.LessOrEqual(t, logo.Bounds().Dy(), LogoMaxHeight)

	out, err := r.Render(testLoan(t, 12), naturalClient(), time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestNewContractRenderer_MissingLogo(t *testing.T) {
	_, err := NewContractRenderer("PréstamosPro", filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestEncodeLogo_SmallImageKeepsSize(t *testing.T) {
	out, err := EncodeLogo(imaging.New(100, 50, color.White))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestContractFilename(t *testing.T) {
	loan := testLoan(t, 3)

	assert.Equal(t,
		"prestamo_6f1c2a8e-6f0b-4b7e-9a53-2a1d5a0c9e11_Jose_Perez_Nunez.pdf",
		ContractFilename(loan, naturalClient()))

	legal := &domain.Client{Party: domain.LegalEntity{BusinessName: "Comercial  Andina S.A.C."}}
	assert.Equal(t,
		"prestamo_6f1c2a8e-6f0b-4b7e-9a53-2a1d5a0c9e11_Comercial_Andina_SAC.pdf",
		ContractFilename(loan, legal))

	foreign := &domain.Client{Party: domain.NaturalPerson{GivenNames: "François", FamilyNames: "Çelik Ångström"}}
	assert.Equal(t,
		"prestamo_6f1c2a8e-6f0b-4b7e-9a53-2a1d5a0c9e11_Francois_Celik_Angstrom.pdf",
		ContractFilename(loan, foreign))
}
