package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_IsDose(t *testing.T) {
	assert.True(t, EventTypeMedicationDue.IsDose())
	assert.True(t, EventTypeSupplementDue.IsDose())
	assert.False(t, EventTypeAppointment.IsDose())
	assert.False(t, EventTypeReminder.IsDose())
	assert.False(t, EventTypeActivity.IsDose())
}

func TestMetadata_EmptyStoresNull(t *testing.T) {
	var m Metadata
	assert.True(t, m.IsEmpty())

	v, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var back Metadata
	require.NoError(t, back.Scan(nil))
	assert.True(t, back.IsEmpty())
}

func TestMetadata_SQLRoundTrip(t *testing.T) {
	m := Metadata{Dose: &DoseMetadata{Dosage: "10", Unit: "mg"}}

	v, err := m.Value()
	require.NoError(t, err)

	var back Metadata
	require.NoError(t, back.Scan(v))
	require.NotNil(t, back.Dose)
	assert.Equal(t, "10", back.Dose.Dosage)
	assert.Equal(t, "mg", back.Dose.Unit)
	assert.Nil(t, back.Appointment)
	assert.Nil(t, back.Reminder)
}

func TestHistoryEntry_CountsForAdherence(t *testing.T) {
	for _, status := range []HistoryStatus{HistoryStatusTaken, HistoryStatusMissed, HistoryStatusSkipped} {
		e := HistoryEntry{Status: status}
		assert.True(t, e.CountsForAdherence(), "status %s", status)
	}

	e := HistoryEntry{Status: HistoryStatusPostponed}
	assert.False(t, e.CountsForAdherence())
}
