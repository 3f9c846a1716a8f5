package schema

import (
	"fmt"
	"strings"
)

// SpanSide is the direction of the instrumented call.
type SpanSide int

const (
	SideUnknown SpanSide = iota
	SideIn
	SideOut
	SideAll
)

var spanSideNames = map[SpanSide]string{
	SideIn:  "IN",
	SideOut: "OUT",
	SideAll: "ALL",
}

func (s SpanSide) String() string {
	if name, ok := spanSideNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SpanSide(%d)", int(s))
}

func (s SpanSide) Valid() bool {
	_, ok := spanSideNames[s]
	return ok
}

// ParseSpanSide maps "in", "OUT", "all" ... to the declared SpanSide.
func ParseSpanSide(s string) (SpanSide, error) {
	for side, name := range spanSideNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return side, nil
		}
	}
	return SideUnknown, fmt.Errorf("unknown span side %q", s)
}

// APIKind is the protocol family of the instrumented call.
type APIKind int

const (
	APIUnknown APIKind = iota
	APIHTTP
	APIAMQP
	APIDB
	APIAll
)

var apiKindNames = map[APIKind]string{
	APIHTTP: "HTTP",
	APIAMQP: "AMQP",
	APIDB:   "DB",
	APIAll:  "ALL",
}

func (k APIKind) String() string {
	if name, ok := apiKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("APIKind(%d)", int(k))
}

func (k APIKind) Valid() bool {
	_, ok := apiKindNames[k]
	return ok
}

func ParseAPIKind(s string) (APIKind, error) {
	for kind, name := range apiKindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return kind, nil
		}
	}
	return APIUnknown, fmt.Errorf("unknown api kind %q", s)
}

// Stage is the phase of the call lifecycle at which a rule fires.
type Stage int

const (
	StageUnknown Stage = iota
	StageInit
	StagePre
	StagePost
)

// Stages lists the stages in lifecycle order.
var Stages = []Stage{StageInit, StagePre, StagePost}

var stageNames = map[Stage]string{
	StageInit: "INIT",
	StagePre:  "PRE",
	StagePost: "POST",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func ParseStage(s string) (Stage, error) {
	for stage, name := range stageNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return stage, nil
		}
	}
	return StageUnknown, fmt.Errorf("unknown stage %q", s)
}

// OriginSection names the part of a point context a value is read from.
type OriginSection int

const (
	OriginUnknown OriginSection = iota
	OriginClient
	OriginPointArgs
	OriginPointResult
	OriginCallStack
	OriginSpan
	OriginReuse
)

var originNames = map[OriginSection]string{
	OriginClient:      "CLIENT",
	OriginPointArgs:   "POINT_ARGS",
	OriginPointResult: "POINT_RESULT",
	OriginCallStack:   "CALL_STACK",
	OriginSpan:        "SPAN",
	OriginReuse:       "REUSE",
}

func (o OriginSection) String() string {
	if name, ok := originNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OriginSection(%d)", int(o))
}

func (o OriginSection) Valid() bool {
	_, ok := originNames[o]
	return ok
}

func ParseOriginSection(s string) (OriginSection, error) {
	for section, name := range originNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return section, nil
		}
	}
	return OriginUnknown, fmt.Errorf("unknown origin section %q", s)
}

// DestinationSection names the sink a rule writes its output to.
type DestinationSection int

const (
	DestUnknown DestinationSection = iota
	DestSpanName
	DestSpanTags
	DestSpanLogs
	DestLogs
	DestTags
	DestReuse
)

var destinationNames = map[DestinationSection]string{
	DestSpanName: "SPAN_NAME",
	DestSpanTags: "SPAN_TAGS",
	DestSpanLogs: "SPAN_LOGS",
	DestLogs:     "LOGS",
	DestTags:     "TAGS",
	DestReuse:    "REUSE",
}

func (d DestinationSection) String() string {
	if name, ok := destinationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DestinationSection(%d)", int(d))
}

func (d DestinationSection) Valid() bool {
	_, ok := destinationNames[d]
	return ok
}

func ParseDestinationSection(s string) (DestinationSection, error) {
	for section, name := range destinationNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return section, nil
		}
	}
	return DestUnknown, fmt.Errorf("unknown destination section %q", s)
}
