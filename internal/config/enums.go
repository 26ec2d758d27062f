package config

import (
	"fmt"

	"github.com/fiffeek/inputswitcher/internal/utils"
)

type TransportType int

const (
	SocketTransport TransportType = iota
	DbusTransport
	StaticTransport
)

var AllTransports = []TransportType{SocketTransport, DbusTransport, StaticTransport}

func (e TransportType) Value() string {
	switch e {
	case SocketTransport:
		return "socket"
	case DbusTransport:
		return "dbus"
	case StaticTransport:
		return "static"
	}
	return ""
}

func (e *TransportType) UnmarshalTOML(value any) error {
	return unmarshalEnum(value, AllTransports, e)
}

func (e TransportType) MarshalText() ([]byte, error) {
	return []byte(e.Value()), nil
}

func ParseTransport(value string) (TransportType, error) {
	var t TransportType
	err := unmarshalEnum(value, AllTransports, &t)
	return t, err
}

// DisplayOrder decides the order of monitor sections.
type DisplayOrder int

const (
	EmissionOrder DisplayOrder = iota
	IDOrder
)

var AllDisplayOrders = []DisplayOrder{EmissionOrder, IDOrder}

func (e DisplayOrder) Value() string {
	switch e {
	case EmissionOrder:
		return "emission"
	case IDOrder:
		return "id"
	}
	return ""
}

func (e *DisplayOrder) UnmarshalTOML(value any) error {
	return unmarshalEnum(value, AllDisplayOrders, e)
}

func (e DisplayOrder) MarshalText() ([]byte, error) {
	return []byte(e.Value()), nil
}

// OrdinalMode decides the number shown next to each monitor.
type OrdinalMode int

const (
	IDOrdinal OrdinalMode = iota
	PositionOrdinal
)

var AllOrdinalModes = []OrdinalMode{IDOrdinal, PositionOrdinal}

func (e OrdinalMode) Value() string {
	switch e {
	case IDOrdinal:
		return "id"
	case PositionOrdinal:
		return "position"
	}
	return ""
}

func (e *OrdinalMode) UnmarshalTOML(value any) error {
	return unmarshalEnum(value, AllOrdinalModes, e)
}

func (e OrdinalMode) MarshalText() ([]byte, error) {
	return []byte(e.Value()), nil
}

func unmarshalEnum[T utils.HasValue](value any, all []T, target *T) error {
	sValue, ok := value.(string)
	if !ok {
		return fmt.Errorf("value %v is not a string type", value)
	}
	for _, enum := range all {
		if enum.Value() == sValue {
			*target = enum
			return nil
		}
	}
	return fmt.Errorf("invalid enum value %q, expected one of %s", sValue, utils.FormatEnumTypes(all))
}
