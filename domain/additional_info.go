package domain

import "encoding/json"

// AdditionalInfo is the structured, per-agent-kind payload surfaced both to
// downstream agents (via ExecutionStep.ContextReferences) and to the UI. It
// is a tagged union rather than a stringly-typed map (spec §9 re-architecture
// point: "dynamic typing of LLM outputs -> typed sum types"): each AgentType
// that produces structured output has exactly one concrete type implementing
// this interface, and Kind() reports which one so ChatMessage's JSON codec
// can round-trip it without ever decoding into map[string]any.
type AdditionalInfo interface {
	Kind() AgentType
}

// OrderSpecialistInfo is the ORDER_SPECIALIST additional_info schema.
type OrderSpecialistInfo struct {
	SuggestedActions []string `json:"suggested_actions,omitempty"`
}

func (OrderSpecialistInfo) Kind() AgentType { return AgentOrderSpecialist }

// TechnicalSpecialistInfo is the TECHNICAL_SPECIALIST additional_info schema.
type TechnicalSpecialistInfo struct {
	TroubleshootingSteps    []string `json:"troubleshooting_steps,omitempty"`
	EstimatedResolutionTime string   `json:"estimated_resolution_time,omitempty"`
}

func (TechnicalSpecialistInfo) Kind() AgentType { return AgentTechnicalSpecialist }

// RefundSpecialistInfo is the REFUND_SPECIALIST additional_info schema.
type RefundSpecialistInfo struct {
	EligibilityAssessment   string `json:"eligibility_assessment,omitempty"`
	RequiredDocumentation   []string `json:"required_documentation,omitempty"`
	ProcessingTimeline      string `json:"processing_timeline,omitempty"`
}

func (RefundSpecialistInfo) Kind() AgentType { return AgentRefundSpecialist }

// GeneralSupportInfo is the GENERAL_SUPPORT additional_info schema.
type GeneralSupportInfo struct {
	SuggestedActions []string `json:"suggested_actions,omitempty"`
}

func (GeneralSupportInfo) Kind() AgentType { return AgentGeneralSupport }

// MeasurementSpecialistInfo is the MALE_SPECIALIST / FEMALE_SPECIALIST
// additional_info schema. AgentType distinguishes which of the two produced
// it since both share a schema.
type MeasurementSpecialistInfo struct {
	AgentType             AgentType         `json:"-"`
	MeasurementsCollected bool              `json:"measurements_collected"`
	MeasurementsData      map[string]string `json:"measurements_data,omitempty"`
	ValidationStatus      string            `json:"validation_status,omitempty"`
}

func (m MeasurementSpecialistInfo) Kind() AgentType { return m.AgentType }

// BillingInfo is the BILLING additional_info schema.
type BillingInfo struct {
	BillingComplete bool           `json:"billing_complete"`
	TotalAmount     float64        `json:"total_amount,omitempty"`
	PaymentStatus   string         `json:"payment_status,omitempty"`
	InvoiceDetails  map[string]any `json:"invoice_details,omitempty"`
}

func (BillingInfo) Kind() AgentType { return AgentBilling }

// DeliveryInfo is the DELIVERY additional_info schema.
type DeliveryInfo struct {
	DeliveryScheduled bool   `json:"delivery_scheduled"`
	DeliveryDate      string `json:"delivery_date,omitempty"`
	TrackingNumber    string `json:"tracking_number,omitempty"`
	DeliveryAddress   string `json:"delivery_address,omitempty"`
}

func (DeliveryInfo) Kind() AgentType { return AgentDelivery }

// AlterationInfo is the ALTERATION additional_info schema.
type AlterationInfo struct {
	AlterationNeeded  bool    `json:"alteration_needed"`
	AlterationDetails string  `json:"alteration_details,omitempty"`
	AdditionalCost    float64 `json:"additional_cost,omitempty"`
}

func (AlterationInfo) Kind() AgentType { return AgentAlteration }

// additionalInfoEnvelope is the wire representation of an AdditionalInfo:
// the discriminant (kind) travels alongside the payload so a decoder never
// has to guess which concrete type to instantiate from context alone. This
// is what lets ChatMessage cross a workflow/activity/signal boundary (via
// an engine's data converter) without AdditionalInfo ever being rehydrated
// as a bare map[string]any.
type additionalInfoEnvelope struct {
	Kind    AgentType       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalAdditionalInfo encodes an AdditionalInfo value into its envelope
// form. Returns nil, nil for a nil input so omitempty on ChatMessage works.
func MarshalAdditionalInfo(info AdditionalInfo) (json.RawMessage, error) {
	if info == nil {
		return nil, nil
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	return json.Marshal(additionalInfoEnvelope{Kind: info.Kind(), Payload: payload})
}

// UnmarshalAdditionalInfo decodes an envelope produced by
// MarshalAdditionalInfo back into the concrete AdditionalInfo implementation
// named by its Kind. Unknown kinds are discarded (return nil, nil) per the
// re-architecture note: "unknown fields are discarded" at the typed boundary.
func UnmarshalAdditionalInfo(raw json.RawMessage) (AdditionalInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env additionalInfoEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case AgentOrderSpecialist:
		var v OrderSpecialistInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentTechnicalSpecialist:
		var v TechnicalSpecialistInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentRefundSpecialist:
		var v RefundSpecialistInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentGeneralSupport:
		var v GeneralSupportInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentMaleSpecialist, AgentFemaleSpecialist:
		var v MeasurementSpecialistInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		v.AgentType = env.Kind
		return v, nil
	case AgentBilling:
		var v BillingInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentDelivery:
		var v DeliveryInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	case AgentAlteration:
		var v AlterationInfo
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}

// MarshalJSON implements json.Marshaler so ChatMessage.AdditionalInfo (an
// interface) serializes through the envelope form above.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type alias ChatMessage
	raw, err := MarshalAdditionalInfo(m.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	}{alias: alias(m), AdditionalInfo: raw})
}

// UnmarshalJSON implements json.Unmarshaler, reversing MarshalJSON.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type alias ChatMessage
	var wire struct {
		alias
		AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	info, err := UnmarshalAdditionalInfo(wire.AdditionalInfo)
	if err != nil {
		return err
	}
	*m = ChatMessage(wire.alias)
	m.AdditionalInfo = info
	return nil
}

// MarshalJSON implements json.Marshaler for SpecialistOutput, mirroring
// ChatMessage's envelope treatment of AdditionalInfo.
func (o SpecialistOutput) MarshalJSON() ([]byte, error) {
	type alias SpecialistOutput
	raw, err := MarshalAdditionalInfo(o.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	}{alias: alias(o), AdditionalInfo: raw})
}

// UnmarshalJSON implements json.Unmarshaler, reversing MarshalJSON.
func (o *SpecialistOutput) UnmarshalJSON(data []byte) error {
	type alias SpecialistOutput
	var wire struct {
		alias
		AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	info, err := UnmarshalAdditionalInfo(wire.AdditionalInfo)
	if err != nil {
		return err
	}
	*o = SpecialistOutput(wire.alias)
	o.AdditionalInfo = info
	return nil
}
