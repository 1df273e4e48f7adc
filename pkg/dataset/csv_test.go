package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cohort-repayment/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAccounts(t *testing.T) {
	in := "AccountId,CustomerId,PaymentPlanId,RegistrationDate\n" +
		"1,10,100,2020-05-14\n" +
		"2,11,101,2020-06-01 08:30:00\n"

	got, err := ReadAccounts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Account{
		AccountID:        "1",
		CustomerID:       "10",
		PaymentPlanID:    "100",
		RegistrationDate: time.Date(2020, 5, 14, 0, 0, 0, 0, time.UTC),
	}, got[0])
	assert.Equal(t, time.June, got[1].RegistrationDate.Month())
}

func TestReadPayments_ColumnOrderAndExtraColumns(t *testing.T) {
	in := "ReceivedWhen,Channel,Amount,AccountId,PaymentId\n" +
		"2020-05-20,mobile,125.50,1,p1\n"

	got, err := ReadPayments(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].PaymentID)
	assert.Equal(t, "1", got[0].AccountID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("125.50")))
}

func TestReadPaymentPlans_HeaderCaseAndBOM(t *testing.T) {
	in := "\ufeffpaymentplanid,PRODUCT,totalvalue\n7,Solar Home,1200\n"

	got, err := ReadPaymentPlans(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Solar Home", got[0].Product)
	assert.True(t, got[0].TotalValue.Equal(decimal.NewFromInt(1200)))
}

func TestReadCustomers_MissingColumn(t *testing.T) {
	_, err := ReadCustomers(strings.NewReader("CustomerId\n1\n"))
	require.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestReadPayments_InvalidAmount(t *testing.T) {
	in := "PaymentId,AccountId,Amount,ReceivedWhen\np1,1,abc,2020-05-01\n"
	_, err := ReadPayments(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "Amount")
}

func TestReadAccounts_SkipsBlankRows(t *testing.T) {
	in := "AccountId,CustomerId,PaymentPlanId,RegistrationDate\n,,,\n1,10,100,2020-05-14\n"
	got, err := ReadAccounts(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2020-05-14":              time.Date(2020, 5, 14, 0, 0, 0, 0, time.UTC),
		"2020-05-14 10:11:12":     time.Date(2020, 5, 14, 10, 11, 12, 0, time.UTC),
		"2020-05-14T10:11:12":     time.Date(2020, 5, 14, 10, 11, 12, 0, time.UTC),
		"2020-05-14T10:11:12Z":    time.Date(2020, 5, 14, 10, 11, 12, 0, time.UTC),
		"2020-05-14 10:11:12.500": time.Date(2020, 5, 14, 10, 11, 12, 500000000, time.UTC),
		"05/14/2020":              time.Date(2020, 5, 14, 0, 0, 0, 0, time.UTC),
		"5/4/2020":                time.Date(2020, 5, 4, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%s: got %v want %v", in, got, want)
	}

	_, err := ParseDate("14th May")
	require.Error(t, err)
}

func TestCSVSource_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("Account.csv", "AccountId,CustomerId,PaymentPlanId,RegistrationDate\n1,10,100,2020-05-14\n")
	write("Customer.csv", "CustomerId,Region\n10,North\n")
	write("PaymentPlan.csv", "PaymentPlanId,Product,TotalValue\n100,Lamp,1000\n")
	write("Payment.csv", "PaymentId,AccountId,Amount,ReceivedWhen\np1,1,500,2020-05-20\np2,1,500,2020-06-02\n")

	ds, err := NewCSVSource(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Accounts, 1)
	assert.Len(t, ds.Customers, 1)
	assert.Len(t, ds.PaymentPlans, 1)
	assert.Len(t, ds.Payments, 2)
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := NewCSVSource(t.TempDir()).Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}
