package zcl

import (
	"github.com/tj-smith47/zigbee-core/structcodec"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/wire"
)

// General (foundation) command ids, common to every cluster.
const (
	CommandReadAttributes                       uint8 = 0x00
	CommandReadAttributesResponse                uint8 = 0x01
	CommandWriteAttributes                       uint8 = 0x02
	CommandWriteAttributesUndivided               uint8 = 0x03
	CommandWriteAttributesResponse                uint8 = 0x04
	CommandWriteAttributesNoResponse              uint8 = 0x05
	CommandConfigureReporting                     uint8 = 0x06
	CommandConfigureReportingResponse             uint8 = 0x07
	CommandReadReportingConfiguration             uint8 = 0x08
	CommandReadReportingConfigurationResponse     uint8 = 0x09
	CommandReportAttributes                       uint8 = 0x0a
	CommandDefaultResponse                        uint8 = 0x0b
	CommandDiscoverAttributes                     uint8 = 0x0c
	CommandDiscoverAttributesResponse              uint8 = 0x0d
	CommandDiscoverCommandsReceived                uint8 = 0x11
	CommandDiscoverCommandsReceivedResponse        uint8 = 0x12
	CommandDiscoverCommandsGenerated               uint8 = 0x13
	CommandDiscoverCommandsGeneratedResponse       uint8 = 0x14
	CommandDiscoverAttributesExtended              uint8 = 0x15
	CommandDiscoverAttributesExtendedResponse      uint8 = 0x16
)

// ReadAttributeRecord is one entry of a read-attributes response: an
// attribute id, a status, and (only when status is SUCCESS) its value.
type ReadAttributeRecord struct {
	AttributeID types.AttributeID
	Status      types.Status
	Value       AttributeValue
}

// SerializeReadAttributeRecord encodes one record.
func SerializeReadAttributeRecord(r ReadAttributeRecord) []byte {
	out := wire.SerializeUint16(uint16(r.AttributeID))
	out = append(out, r.Status.Byte())
	if r.Status.IsSuccess() {
		out = append(out, r.Value.Serialize()...)
	}
	return out
}

// DeserializeReadAttributeRecord decodes one record.
func DeserializeReadAttributeRecord(b []byte) (ReadAttributeRecord, []byte, error) {
	id, rest, err := wire.DeserializeUint16(b)
	if err != nil {
		return ReadAttributeRecord{}, nil, err
	}
	statusByte, rest, err := wire.DeserializeUint8(rest)
	if err != nil {
		return ReadAttributeRecord{}, nil, err
	}
	r := ReadAttributeRecord{
		AttributeID: types.AttributeID(id),
		Status:      types.NewStatusFromByte(statusByte),
	}
	if r.Status.IsSuccess() {
		var val AttributeValue
		val, rest, err = DeserializeAttributeValue(rest)
		if err != nil {
			return ReadAttributeRecord{}, nil, err
		}
		r.Value = val
	}
	return r, rest, nil
}

// Attribute pairs an attribute id with its value, used by write-attributes
// and report-attributes.
type Attribute struct {
	AttributeID types.AttributeID
	Value       AttributeValue
}

// SerializeAttribute encodes an (id, value) pair.
func SerializeAttribute(a Attribute) []byte {
	return append(wire.SerializeUint16(uint16(a.AttributeID)), a.Value.Serialize()...)
}

// DeserializeAttribute decodes an (id, value) pair.
func DeserializeAttribute(b []byte) (Attribute, []byte, error) {
	id, rest, err := wire.DeserializeUint16(b)
	if err != nil {
		return Attribute{}, nil, err
	}
	val, rest, err := DeserializeAttributeValue(rest)
	if err != nil {
		return Attribute{}, nil, err
	}
	return Attribute{AttributeID: types.AttributeID(id), Value: val}, rest, nil
}

// WriteAttributesStatusRecord reports the outcome of one write, echoed only
// for attributes that did not succeed (a write-attributes-response whose
// list is empty means every attribute was written successfully).
type WriteAttributesStatusRecord struct {
	Status      types.Status
	AttributeID types.AttributeID
}

// SerializeWriteAttributesStatusRecord encodes one record.
func SerializeWriteAttributesStatusRecord(r WriteAttributesStatusRecord) []byte {
	return append([]byte{r.Status.Byte()}, wire.SerializeUint16(uint16(r.AttributeID))...)
}

// DeserializeWriteAttributesStatusRecord decodes one record.
func DeserializeWriteAttributesStatusRecord(b []byte) (WriteAttributesStatusRecord, []byte, error) {
	statusByte, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return WriteAttributesStatusRecord{}, nil, err
	}
	id, rest, err := wire.DeserializeUint16(rest)
	if err != nil {
		return WriteAttributesStatusRecord{}, nil, err
	}
	return WriteAttributesStatusRecord{
		Status:      types.NewStatusFromByte(statusByte),
		AttributeID: types.AttributeID(id),
	}, rest, nil
}

// ReportingConfig is both the configure-reporting request record and the
// read-reporting-configuration response record. Direction false means "I
// will report this to you" (min/max interval and, for analog types, a
// reportable_change payload); Direction true means "send me reports of
// this within timeout" (used for requesting receipt of a peer's reports).
type ReportingConfig struct {
	Direction         bool
	AttributeID       types.AttributeID
	Timeout           uint16 // valid when Direction == true
	DataType          AttributeType
	MinInterval       uint16
	MaxInterval       uint16
	ReportableChange  AttributeValue // present only when DataType is analog
}

var reportingConfigSchema = mustStruct("ReportingConfig",
	structcodec.BoolField("direction", nil),
	structcodec.Uint16Field("attrid", nil),
	structcodec.Uint16Field("timeout", func(r *structcodec.Record) bool {
		v, _ := r.Get("direction")
		d, _ := v.(bool)
		return d
	}),
	structcodec.Uint8Field("datatype", func(r *structcodec.Record) bool {
		v, _ := r.Get("direction")
		d, _ := v.(bool)
		return !d
	}),
	structcodec.Uint16Field("min_interval", func(r *structcodec.Record) bool {
		v, _ := r.Get("direction")
		d, _ := v.(bool)
		return !d
	}),
	structcodec.Uint16Field("max_interval", func(r *structcodec.Record) bool {
		v, _ := r.Get("direction")
		d, _ := v.(bool)
		return !d
	}),
)

func mustStruct(name string, fields ...structcodec.Field) *structcodec.Struct {
	s, err := structcodec.NewStruct(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// SerializeReportingConfig encodes one configure-reporting / read-reporting-
// configuration record, including the reportable_change payload when the
// attribute's type is analog.
func SerializeReportingConfig(c ReportingConfig) []byte {
	rec := reportingConfigSchema.NewRecord(map[string]any{
		"direction": c.Direction,
		"attrid":    uint16(c.AttributeID),
	})
	var out []byte
	if c.Direction {
		rec.Set("timeout", c.Timeout)
		out = reportingConfigSchema.Serialize(rec)
		return out
	}
	rec.Set("datatype", uint8(c.DataType))
	rec.Set("min_interval", c.MinInterval)
	rec.Set("max_interval", c.MaxInterval)
	out = reportingConfigSchema.Serialize(rec)
	if class, err := Classify(c.DataType); err == nil && class == ClassAnalog {
		out = append(out, c.ReportableChange.Serialize()...)
	}
	return out
}

// DeserializeReportingConfig decodes one record.
func DeserializeReportingConfig(b []byte) (ReportingConfig, []byte, error) {
	rec, rest, err := reportingConfigSchema.Deserialize(b)
	if err != nil {
		return ReportingConfig{}, nil, err
	}
	c := ReportingConfig{}
	c.Direction, _ = rec.MustGet("direction").(bool)
	attrid, _ := rec.MustGet("attrid").(uint16)
	c.AttributeID = types.AttributeID(attrid)

	if c.Direction {
		c.Timeout, _ = rec.MustGet("timeout").(uint16)
		return c, rest, nil
	}

	dt, _ := rec.MustGet("datatype").(uint8)
	c.DataType = AttributeType(dt)
	c.MinInterval, _ = rec.MustGet("min_interval").(uint16)
	c.MaxInterval, _ = rec.MustGet("max_interval").(uint16)

	if class, err := Classify(c.DataType); err == nil && class == ClassAnalog {
		var val AttributeValue
		val, rest, err = DeserializeAttributeValue(rest)
		if err != nil {
			return ReportingConfig{}, nil, err
		}
		c.ReportableChange = val
	}
	return c, rest, nil
}

// ConfigureReportingResponseRecord reports the outcome of one
// configure-reporting entry.
type ConfigureReportingResponseRecord struct {
	Status      types.Status
	Direction   bool
	AttributeID types.AttributeID
}

// SerializeConfigureReportingResponseRecord encodes one record.
func SerializeConfigureReportingResponseRecord(r ConfigureReportingResponseRecord) []byte {
	out := []byte{r.Status.Byte()}
	out = append(out, wire.SerializeBool(r.Direction)...)
	return append(out, wire.SerializeUint16(uint16(r.AttributeID))...)
}

// DeserializeConfigureReportingResponseRecord decodes one record.
func DeserializeConfigureReportingResponseRecord(b []byte) (ConfigureReportingResponseRecord, []byte, error) {
	statusByte, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return ConfigureReportingResponseRecord{}, nil, err
	}
	dir, rest, err := wire.DeserializeBool(rest)
	if err != nil {
		return ConfigureReportingResponseRecord{}, nil, err
	}
	id, rest, err := wire.DeserializeUint16(rest)
	if err != nil {
		return ConfigureReportingResponseRecord{}, nil, err
	}
	return ConfigureReportingResponseRecord{
		Status:      types.NewStatusFromByte(statusByte),
		Direction:   dir,
		AttributeID: types.AttributeID(id),
	}, rest, nil
}

// DiscoverAttributesResponseRecord pairs an attribute id with its type tag.
type DiscoverAttributesResponseRecord struct {
	AttributeID types.AttributeID
	DataType    AttributeType
}

// SerializeDiscoverAttributesResponseRecord encodes one record.
func SerializeDiscoverAttributesResponseRecord(r DiscoverAttributesResponseRecord) []byte {
	return append(wire.SerializeUint16(uint16(r.AttributeID)), byte(r.DataType))
}

// DeserializeDiscoverAttributesResponseRecord decodes one record.
func DeserializeDiscoverAttributesResponseRecord(b []byte) (DiscoverAttributesResponseRecord, []byte, error) {
	id, rest, err := wire.DeserializeUint16(b)
	if err != nil {
		return DiscoverAttributesResponseRecord{}, nil, err
	}
	dt, rest, err := wire.DeserializeUint8(rest)
	if err != nil {
		return DiscoverAttributesResponseRecord{}, nil, err
	}
	return DiscoverAttributesResponseRecord{
		AttributeID: types.AttributeID(id),
		DataType:    AttributeType(dt),
	}, rest, nil
}

// DefaultResponse is the synthesized reply to a command whose
// disable_default_response bit was clear, or the response to an unknown
// command/cluster.
type DefaultResponse struct {
	CommandID uint8
	Status    types.Status
}

// NewDefaultResponse builds a default response for the given inbound
// command id and outcome status.
func NewDefaultResponse(commandID uint8, status types.Status) DefaultResponse {
	return DefaultResponse{CommandID: commandID, Status: status}
}

// Serialize encodes the default response body (command id then status
// byte); the caller wraps this in a Header with CommandID ==
// CommandDefaultResponse.
func (d DefaultResponse) Serialize() []byte {
	return []byte{d.CommandID, d.Status.Byte()}
}

// DeserializeDefaultResponse decodes a default response body.
func DeserializeDefaultResponse(b []byte) (DefaultResponse, []byte, error) {
	cmd, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return DefaultResponse{}, nil, err
	}
	statusByte, rest, err := wire.DeserializeUint8(rest)
	if err != nil {
		return DefaultResponse{}, nil, err
	}
	return DefaultResponse{CommandID: cmd, Status: types.NewStatusFromByte(statusByte)}, rest, nil
}
