package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to    Status
		wantChanged bool
		wantErr     bool
	}{
		{from: StatusDue, to: StatusDone, wantChanged: true},
		{from: StatusDue, to: StatusSkipped, wantChanged: true},
		{from: StatusDue, to: StatusMissed, wantChanged: true},
		{from: StatusDue, to: StatusDue},
		{from: StatusDone, to: StatusDone},
		{from: StatusSkipped, to: StatusSkipped},
		{from: StatusMissed, to: StatusMissed},
		{from: StatusDone, to: StatusSkipped, wantErr: true},
		{from: StatusSkipped, to: StatusDone, wantErr: true},
		{from: StatusMissed, to: StatusDone, wantErr: true},
		{from: StatusDone, to: StatusDue, wantErr: true},
		{from: StatusDue, to: Status("LATE"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			changed, err := Transition(tt.from, tt.to)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestMissedCutoff(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), MissedCutoff(now, 12))
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), MissedCutoff(now, 0))
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), MissedCutoff(now, 24))
}

func TestIsOverdue(t *testing.T) {
	cutoff := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOverdue(StatusDue, cutoff.Add(-time.Minute), cutoff))
	assert.False(t, IsOverdue(StatusDue, cutoff, cutoff))
	assert.False(t, IsOverdue(StatusDue, cutoff.Add(time.Hour), cutoff))
	assert.False(t, IsOverdue(StatusDone, cutoff.Add(-48*time.Hour), cutoff))
	assert.False(t, IsOverdue(StatusSkipped, cutoff.Add(-48*time.Hour), cutoff))
}
