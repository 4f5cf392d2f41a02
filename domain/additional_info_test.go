package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChatMessageAdditionalInfoRoundTrip(t *testing.T) {
	msg := ChatMessage{
		ID:          "msg-1",
		TicketID:    "ticket-1",
		Content:     "your refund is approved",
		MessageType: MessageAIAgent,
		AgentType:   AgentRefundSpecialist,
		Timestamp:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		AdditionalInfo: RefundSpecialistInfo{
			EligibilityAssessment: "eligible",
			ProcessingTimeline:    "3-5 business days",
		},
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded ChatMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))

	info, ok := decoded.AdditionalInfo.(RefundSpecialistInfo)
	require.True(t, ok, "expected RefundSpecialistInfo, got %T", decoded.AdditionalInfo)
	require.Equal(t, "eligible", info.EligibilityAssessment)
	require.Equal(t, "3-5 business days", info.ProcessingTimeline)
}

func TestChatMessageAdditionalInfoNilOmitted(t *testing.T) {
	msg := ChatMessage{ID: "msg-2", MessageType: MessageCustomer}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "additional_info")

	var decoded ChatMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Nil(t, decoded.AdditionalInfo)
}

func TestMeasurementSpecialistInfoKindTracksAgentType(t *testing.T) {
	raw, err := MarshalAdditionalInfo(MeasurementSpecialistInfo{
		AgentType:             AgentFemaleSpecialist,
		MeasurementsCollected: true,
	})
	require.NoError(t, err)

	decoded, err := UnmarshalAdditionalInfo(raw)
	require.NoError(t, err)

	info, ok := decoded.(MeasurementSpecialistInfo)
	require.True(t, ok)
	require.Equal(t, AgentFemaleSpecialist, info.AgentType)
	require.True(t, info.MeasurementsCollected)
}

func TestUnmarshalAdditionalInfoUnknownKindDiscarded(t *testing.T) {
	raw := []byte(`{"kind":"SOME_FUTURE_AGENT","payload":{}}`)

	info, err := UnmarshalAdditionalInfo(raw)
	require.NoError(t, err)
	require.Nil(t, info)
}
