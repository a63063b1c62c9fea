// Messages of tele.proto.
package tele

import (
	"github.com/golang/protobuf/proto"
)

type State int32

const (
	State_Invalid      State = 0
	State_Boot         State = 1
	State_Online       State = 2
	State_DeviceLost   State = 3
	State_Disconnected State = 4
)

var State_name = map[int32]string{
	0: "Invalid",
	1: "Boot",
	2: "Online",
	3: "DeviceLost",
	4: "Disconnected",
}

func (x State) String() string { return proto.EnumName(State_name, int32(x)) }

type Telemetry struct {
	Device  string             `protobuf:"bytes,1,opt,name=device,proto3" json:"device,omitempty"`
	Time    int64              `protobuf:"varint,2,opt,name=time,proto3" json:"time,omitempty"`
	Instant *Telemetry_Instant `protobuf:"bytes,3,opt,name=instant,proto3" json:"instant,omitempty"`
	History *Telemetry_History `protobuf:"bytes,4,opt,name=history,proto3" json:"history,omitempty"`
	Error   *Telemetry_Error   `protobuf:"bytes,5,opt,name=error,proto3" json:"error,omitempty"`
	Stat    *Telemetry_Stat    `protobuf:"bytes,6,opt,name=stat,proto3" json:"stat,omitempty"`
}

func (m *Telemetry) Reset()         { *m = Telemetry{} }
func (m *Telemetry) String() string { return proto.CompactTextString(m) }
func (*Telemetry) ProtoMessage()    {}

type Telemetry_Instant struct {
	PowerW           int32   `protobuf:"varint,1,opt,name=power_w,json=powerW,proto3" json:"power_w,omitempty"`
	TodayKwh         float64 `protobuf:"fixed64,2,opt,name=today_kwh,json=todayKwh,proto3" json:"today_kwh,omitempty"`
	TotalKwh         float64 `protobuf:"fixed64,3,opt,name=total_kwh,json=totalKwh,proto3" json:"total_kwh,omitempty"`
	ChecksumMismatch bool    `protobuf:"varint,4,opt,name=checksum_mismatch,json=checksumMismatch,proto3" json:"checksum_mismatch,omitempty"`
}

func (m *Telemetry_Instant) Reset()         { *m = Telemetry_Instant{} }
func (m *Telemetry_Instant) String() string { return proto.CompactTextString(m) }
func (*Telemetry_Instant) ProtoMessage()    {}

type Telemetry_Sample struct {
	Time  int64   `protobuf:"varint,1,opt,name=time,proto3" json:"time,omitempty"`
	Value float64 `protobuf:"fixed64,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Telemetry_Sample) Reset()         { *m = Telemetry_Sample{} }
func (m *Telemetry_Sample) String() string { return proto.CompactTextString(m) }
func (*Telemetry_Sample) ProtoMessage()    {}

type Telemetry_History struct {
	Kind    string              `protobuf:"bytes,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Samples []*Telemetry_Sample `protobuf:"bytes,2,rep,name=samples,proto3" json:"samples,omitempty"`
	Partial bool                `protobuf:"varint,3,opt,name=partial,proto3" json:"partial,omitempty"`
}

func (m *Telemetry_History) Reset()         { *m = Telemetry_History{} }
func (m *Telemetry_History) String() string { return proto.CompactTextString(m) }
func (*Telemetry_History) ProtoMessage()    {}

type Telemetry_Error struct {
	Message   string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
	Retryable bool   `protobuf:"varint,2,opt,name=retryable,proto3" json:"retryable,omitempty"`
}

func (m *Telemetry_Error) Reset()         { *m = Telemetry_Error{} }
func (m *Telemetry_Error) String() string { return proto.CompactTextString(m) }
func (*Telemetry_Error) ProtoMessage()    {}

type Telemetry_Stat struct {
	Request     uint32 `protobuf:"varint,1,opt,name=request,proto3" json:"request,omitempty"`
	Error       uint32 `protobuf:"varint,2,opt,name=error,proto3" json:"error,omitempty"`
	Timeout     uint32 `protobuf:"varint,3,opt,name=timeout,proto3" json:"timeout,omitempty"`
	Checksum    uint32 `protobuf:"varint,4,opt,name=checksum,proto3" json:"checksum,omitempty"`
	Handshake   uint32 `protobuf:"varint,5,opt,name=handshake,proto3" json:"handshake,omitempty"`
	TeleSent    uint32 `protobuf:"varint,6,opt,name=tele_sent,json=teleSent,proto3" json:"tele_sent,omitempty"`
	TeleDropped uint32 `protobuf:"varint,7,opt,name=tele_dropped,json=teleDropped,proto3" json:"tele_dropped,omitempty"`
}

func (m *Telemetry_Stat) Reset()         { *m = Telemetry_Stat{} }
func (m *Telemetry_Stat) String() string { return proto.CompactTextString(m) }
func (*Telemetry_Stat) ProtoMessage()    {}

func init() {
	proto.RegisterEnum("tele.State", State_name, map[string]int32{
		"Invalid": 0, "Boot": 1, "Online": 2, "DeviceLost": 3, "Disconnected": 4,
	})
	proto.RegisterType((*Telemetry)(nil), "tele.Telemetry")
	proto.RegisterType((*Telemetry_Instant)(nil), "tele.Telemetry.Instant")
	proto.RegisterType((*Telemetry_Sample)(nil), "tele.Telemetry.Sample")
	proto.RegisterType((*Telemetry_History)(nil), "tele.Telemetry.History")
	proto.RegisterType((*Telemetry_Error)(nil), "tele.Telemetry.Error")
	proto.RegisterType((*Telemetry_Stat)(nil), "tele.Telemetry.Stat")
}
