package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to SplitStatus
		want     bool
	}{
		{SplitStatusUnpaid, SplitStatusPending, true},
		{SplitStatusPending, SplitStatusPaid, true},
		{SplitStatusUnpaid, SplitStatusPaid, false},
		{SplitStatusPending, SplitStatusUnpaid, false},
		{SplitStatusPaid, SplitStatusPending, false},
		{SplitStatusPaid, SplitStatusUnpaid, false},
		{SplitStatusUnpaid, SplitStatusUnpaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSplitReceiver(t *testing.T) {
	owner := "tenant-b"
	assert.Equal(t, "tenant-a", Split{AssignedTo: "tenant-a"}.Receiver())
	assert.True(t, Split{AssignedTo: "tenant-a"}.IsSelfAssigned())
	assert.Equal(t, "tenant-b", Split{AssignedTo: "tenant-a", AssignedBy: &owner}.Receiver())
}

func TestSumSplits(t *testing.T) {
	splits := []Split{
		{Amount: decimal.RequireFromString("333.33")},
		{Amount: decimal.RequireFromString("333.33")},
		{Amount: decimal.RequireFromString("333.34")},
	}
	assert.True(t, decimal.NewFromInt(1000).Equal(SumSplits(splits)))
	assert.True(t, SumSplits(nil).IsZero())
}
