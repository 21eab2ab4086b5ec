package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelagency/backoffice/internal/domain/pricing"
	"github.com/travelagency/backoffice/internal/domain/shared"
	"github.com/travelagency/backoffice/internal/domain/terms"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func service(id, payer, sale string) ServiceLineItem {
	return ServiceLineItem{
		ID:               id,
		Category:         "hotel",
		CostPrice:        dec(sale).Sub(dec("10")),
		SalePrice:        dec(sale),
		PayerDisplayName: payer,
	}
}

func TestNormalizePayerKey(t *testing.T) {
	assert.Equal(t, "jane doe", NormalizePayerKey("  Jane Doe "))
	assert.Equal(t, "", NormalizePayerKey("   "))
}

func TestGroupByPayer(t *testing.T) {
	services := []ServiceLineItem{
		service("s1", "Jane Doe", "100"),
		service("s2", " jane doe ", "200"),
		service("s3", "John Smith", "50"),
		service("s4", "JANE DOE", "300"),
	}

	buckets := GroupByPayer(services)

	require.Len(t, buckets, 2)
	assert.Equal(t, "jane doe", buckets[0].PayerKey)
	assert.Equal(t, "Jane Doe", buckets[0].PayerDisplayName)
	require.Len(t, buckets[0].Services, 3)
	assert.Equal(t, []string{"s1", "s2", "s4"}, []string{
		buckets[0].Services[0].ID, buckets[0].Services[1].ID, buckets[0].Services[2].ID,
	})
	assert.Equal(t, "john smith", buckets[1].PayerKey)
	require.Len(t, buckets[1].Services, 1)

	t.Run("every service lands in exactly one bucket", func(t *testing.T) {
		seen := map[string]int{}
		for _, b := range buckets {
			for _, s := range b.Services {
				seen[s.ID]++
				assert.Equal(t, b.PayerKey, s.PayerKey)
			}
		}
		assert.Len(t, seen, len(services))
		for id, n := range seen {
			assert.Equal(t, 1, n, id)
		}
	})
}

func TestServiceLineItem_Normalized(t *testing.T) {
	s := ServiceLineItem{ID: "s1", PayerDisplayName: " Ann ", SalePrice: dec("10.005")}.Normalized()

	assert.Equal(t, "ann", s.PayerKey)
	assert.Equal(t, "Ann", s.PayerDisplayName)
	assert.Equal(t, int32(2), s.CurrencyMinorUnit)
	assert.Equal(t, pricing.ModeStandard, s.PricingMode)
	assert.True(t, s.SalePrice.Equal(dec("10.01")))
}

func TestServiceLineItem_PricingState(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		st := ServiceLineItem{CostPrice: dec("800"), SalePrice: dec("1000")}.Normalized().PricingState()
		assert.Equal(t, pricing.ModeStandard, st.Mode)
		assert.True(t, st.Margin.Equal(dec("200")))
	})

	t.Run("tour sale below cost becomes a discount", func(t *testing.T) {
		st := ServiceLineItem{PricingMode: pricing.ModeTour, CostPrice: dec("1000"), SalePrice: dec("950")}.PricingState()
		assert.Equal(t, pricing.ModeTour, st.Mode)
		assert.True(t, st.DiscountAmount().Equal(dec("50")))
		assert.Equal(t, pricing.DiscountCurrency, st.DiscountUnit)
		assert.True(t, st.Sale.Equal(dec("950")))
	})
}

func TestLargestSale(t *testing.T) {
	_, ok := LargestSale(nil)
	assert.False(t, ok)

	best, ok := LargestSale([]ServiceLineItem{
		service("a", "x", "100"), service("b", "x", "300"), service("c", "x", "300"),
	})
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func amounts(lines Lines) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Amount.StringFixed(2)
	}
	return out
}

func TestLines(t *testing.T) {
	base := LinesFromServices([]ServiceLineItem{
		service("s1", "x", "100"), service("s2", "x", "200"), service("s3", "x", "300"),
	})
	require.Len(t, base, 3)
	assert.Equal(t, "s1", base[0].ServiceID)
	assert.Equal(t, "hotel", base[0].Description)

	t.Run("add", func(t *testing.T) {
		out, line := base.Add("Transfer", "45.5")
		assert.Len(t, out, 4)
		assert.Len(t, base, 3)
		assert.Equal(t, line.ID, out[3].ID)
		assert.True(t, line.Amount.Equal(dec("45.5")))
		assert.Empty(t, line.ServiceID)
	})

	t.Run("update leaves other lines alone", func(t *testing.T) {
		amount := "abc"
		out, err := base.Update(base[1].ID, nil, &amount)
		require.NoError(t, err)
		assert.Equal(t, []string{"100.00", "0.00", "300.00"}, amounts(out))
		assert.Equal(t, []string{"100.00", "200.00", "300.00"}, amounts(base))
	})

	t.Run("copy", func(t *testing.T) {
		out, dup, err := base.Copy(base[0].ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"100.00", "100.00", "200.00", "300.00"}, amounts(out))
		assert.Equal(t, dup.ID, out[1].ID)
		assert.NotEqual(t, base[0].ID, dup.ID)
		assert.Empty(t, dup.ServiceID)

		edited, err := out.Update(dup.ID, nil, strPtr("1"))
		require.NoError(t, err)
		assert.True(t, edited[0].Amount.Equal(dec("100")))
	})

	t.Run("delete", func(t *testing.T) {
		out, err := base.Delete(base[1].ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"100.00", "300.00"}, amounts(out))
	})

	t.Run("move", func(t *testing.T) {
		out, err := base.Move(base[2].ID, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"300.00", "100.00", "200.00"}, amounts(out))

		out, err = base.Move(base[0].ID, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"200.00", "300.00", "100.00"}, amounts(out))

		_, err = base.Move(base[0].ID, 3)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown line", func(t *testing.T) {
		_, err := base.Delete(uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("sync service", func(t *testing.T) {
		out := base.SyncService("s2", dec("250"))
		assert.Equal(t, []string{"100.00", "250.00", "300.00"}, amounts(out))
	})
}

func strPtr(s string) *string { return &s }

func TestCalculateTotals(t *testing.T) {
	lines := Lines{
		{ID: uuid.New(), Amount: dec("100")},
		{ID: uuid.New(), Amount: dec("49.99")},
	}

	totals := CalculateTotals(lines, dec("10"))

	assert.True(t, totals.Subtotal.Equal(dec("149.99")))
	assert.True(t, totals.TaxAmount.Equal(dec("15")))
	assert.True(t, totals.Total.Equal(dec("164.99")))
	assert.False(t, totals.IsCreditNote)

	t.Run("negative total is a credit note", func(t *testing.T) {
		credit := CalculateTotals(Lines{{Amount: dec("50")}, {Amount: dec("-80")}}, decimal.Zero)
		assert.True(t, credit.Total.Equal(dec("-30")))
		assert.True(t, credit.IsCreditNote)
	})

	t.Run("empty", func(t *testing.T) {
		empty := CalculateTotals(nil, dec("20"))
		assert.True(t, empty.Total.IsZero())
		assert.False(t, empty.IsCreditNote)
	})

	t.Run("reordering does not change totals", func(t *testing.T) {
		moved, err := lines.Move(lines[1].ID, 0)
		require.NoError(t, err)
		assert.True(t, CalculateTotals(moved, dec("10")).Total.Equal(totals.Total))
	})
}

func draft() Draft {
	lines := LinesFromServices([]ServiceLineItem{service("s1", "Jane", "400"), service("s2", "Jane", "100")})
	totals := CalculateTotals(lines, decimal.Zero)
	return Draft{
		PayerKey:    "jane",
		PayerName:   "Jane",
		Language:    "en",
		InvoiceDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Lines:       lines,
		Totals:      totals,
		Terms:       terms.Recalculate(totals.Total, terms.NewSnapshot()),
	}
}

func TestDraft_Validate(t *testing.T) {
	require.NoError(t, draft().Validate())

	d := draft()
	d.PayerName = " "
	d.Lines = nil
	err := d.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidationRejected)
	assert.Contains(t, err.Error(), "payer name")
	assert.Contains(t, err.Error(), "invoice line")
}

func TestNewInvoice(t *testing.T) {
	t.Run("full payment has no deposit row", func(t *testing.T) {
		inv, err := NewInvoice(draft(), "INV-2026-00001")
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, inv.Status)
		assert.Equal(t, DocumentInvoice, inv.DocumentType)
		assert.Nil(t, inv.DepositAmount)
		assert.True(t, inv.FinalPaymentAmount.Equal(dec("500")))
		assert.Len(t, inv.Items, 2)
		assert.Equal(t, 2, inv.Items[1].Position)
		assert.Equal(t, inv.InvoiceDate, inv.DueDate)
		require.Len(t, inv.PendingEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.PendingEvents()[0].EventType())
	})

	t.Run("deposit and due date from final payment", func(t *testing.T) {
		d := draft()
		final := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		res := terms.Resolve(d.Totals.Total, terms.NewSnapshot(), terms.Edit{Field: terms.FieldDepositValue, Raw: "20"})
		d.Terms = terms.Resolve(d.Totals.Total, res.Snapshot, terms.Edit{Field: terms.FieldFinalPaymentDate, Date: &final})

		inv, err := NewInvoice(d, "INV-2026-00002")
		require.NoError(t, err)
		require.NotNil(t, inv.DepositAmount)
		assert.True(t, inv.DepositAmount.Equal(dec("100")))
		assert.True(t, inv.FinalPaymentAmount.Equal(dec("400")))
		assert.Equal(t, final, inv.DueDate)
	})

	t.Run("credit note", func(t *testing.T) {
		d := draft()
		d.Lines, _ = d.Lines.Add("Refund", "-900")
		d.Totals = CalculateTotals(d.Lines, decimal.Zero)
		inv, err := NewInvoice(d, "INV-2026-00003")
		require.NoError(t, err)
		assert.True(t, inv.IsCreditNote())
	})

	t.Run("number required", func(t *testing.T) {
		_, err := NewInvoice(draft(), " ")
		assert.ErrorIs(t, err, shared.ErrValidationRejected)
	})
}

func TestNumberFormat(t *testing.T) {
	f := DefaultNumberFormat()

	assert.Equal(t, "INV-2026-00042", f.Format(2026, 42))

	seq, ok := f.ParseSequence(2026, "INV-2026-00042")
	assert.True(t, ok)
	assert.Equal(t, int64(42), seq)

	_, ok = f.ParseSequence(2026, "INV-2025-00042")
	assert.False(t, ok)
	_, ok = f.ParseSequence(2026, "MANUAL-7")
	assert.False(t, ok)

	f.Max = 99
	assert.False(t, f.Exhausted(99))
	assert.True(t, f.Exhausted(100))
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en", NormalizeLanguage("EN-gb", "de"))
	assert.Equal(t, "fr", NormalizeLanguage(" fr ", "de"))
	assert.Equal(t, "de", NormalizeLanguage("", "de"))
	assert.Equal(t, "de", NormalizeLanguage("not a tag!", "de"))
}
