package demo

import (
	"fmt"
	"math"

	"github.com/glizzus/demovoice/internal/bitstream"
)

// SendPropType is the wire type of a send table property.
type SendPropType uint8

const (
	SendPropInt       SendPropType = 0
	SendPropFloat     SendPropType = 1
	SendPropVector    SendPropType = 2
	SendPropVectorXY  SendPropType = 3
	SendPropString    SendPropType = 4
	SendPropArray     SendPropType = 5
	SendPropDataTable SendPropType = 6
)

func (t SendPropType) String() string {
	switch t {
	case SendPropInt:
		return "Int"
	case SendPropFloat:
		return "Float"
	case SendPropVector:
		return "Vector"
	case SendPropVectorXY:
		return "VectorXY"
	case SendPropString:
		return "String"
	case SendPropArray:
		return "Array"
	case SendPropDataTable:
		return "DataTable"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

const (
	sendPropTypeBits     = 5
	sendPropFlagBits     = 16
	sendPropCountBits    = 10
	sendPropElementsBits = 10
	sendPropBitCountBits = 7

	// SendPropFlagExclude marks a property that removes one inherited from
	// another table.
	SendPropFlagExclude = 1 << 6
)

// SendProp is one property definition of a send table.
type SendProp struct {
	Type  SendPropType
	Name  string
	Flags uint16
	// Table names the nested table of DataTable props, or the excluded table
	// of exclude props.
	Table    string
	Elements int
	Low      float32
	High     float32
	Bits     int
}

func (p SendProp) String() string {
	switch {
	case p.Type == SendPropDataTable:
		return fmt.Sprintf("%s table=%s flags=%#x", p.Type, p.Table, p.Flags)
	case p.Flags&SendPropFlagExclude != 0:
		return fmt.Sprintf("Exclude %s.%s flags=%#x", p.Table, p.Name, p.Flags)
	case p.Type == SendPropArray:
		return fmt.Sprintf("%s elements=%d flags=%#x", p.Type, p.Elements, p.Flags)
	default:
		return fmt.Sprintf("%s bits=%d low=%g high=%g flags=%#x", p.Type, p.Bits, p.Low, p.High, p.Flags)
	}
}

// SendTable is a named list of networked properties.
type SendTable struct {
	Name         string
	NeedsDecoder bool
	Props        []SendProp
}

// ServerClass binds an entity class to its send table.
type ServerClass struct {
	ID    uint16
	Name  string
	Table string
}

// DataTables is the payload of a DataTables frame.
type DataTables struct {
	Tables  []SendTable
	Classes []ServerClass
}

// ClassFor returns the server class whose send table is table.
func (d *DataTables) ClassFor(table string) (ServerClass, bool) {
	for _, c := range d.Classes {
		if c.Table == table {
			return c, true
		}
	}
	return ServerClass{}, false
}

// ParseDataTables decodes the payload of a DataTables frame.
// Layout: repeated [more:1][table], [more:1]=0, then [count:16] and per class
// [id:16][name:str][table:str].
func ParseDataTables(data []byte) (*DataTables, error) {
	r := bitstream.NewReader(data)
	var dt DataTables

	for {
		more, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("failed to read send table marker: %w", err)
		}
		if !more {
			break
		}
		table, err := readSendTable(r)
		if err != nil {
			return nil, fmt.Errorf("send table %d: %w", len(dt.Tables), err)
		}
		dt.Tables = append(dt.Tables, *table)
	}

	count, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("failed to read server class count: %w", err)
	}
	dt.Classes = make([]ServerClass, 0, count)
	for i := 0; i < int(count); i++ {
		var class ServerClass
		if class.ID, err = r.ReadUint16(); err != nil {
			return nil, fmt.Errorf("server class %d: %w", i, err)
		}
		if class.Name, err = r.ReadString(); err != nil {
			return nil, fmt.Errorf("server class %d: %w", i, err)
		}
		if class.Table, err = r.ReadString(); err != nil {
			return nil, fmt.Errorf("server class %s: %w", class.Name, err)
		}
		dt.Classes = append(dt.Classes, class)
	}
	return &dt, nil
}

func readSendTable(r *bitstream.Reader) (*SendTable, error) {
	var table SendTable
	var err error
	if table.NeedsDecoder, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if table.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	count, err := r.ReadBits(sendPropCountBits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table.Name, err)
	}

	table.Props = make([]SendProp, 0, count)
	for i := 0; i < int(count); i++ {
		prop, err := readSendProp(r)
		if err != nil {
			return nil, fmt.Errorf("%s prop %d: %w", table.Name, i, err)
		}
		table.Props = append(table.Props, *prop)
	}
	return &table, nil
}

func readSendProp(r *bitstream.Reader) (*SendProp, error) {
	var p SendProp
	kind, err := r.ReadBits(sendPropTypeBits)
	if err != nil {
		return nil, err
	}
	p.Type = SendPropType(kind)
	if p.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	flags, err := r.ReadBits(sendPropFlagBits)
	if err != nil {
		return nil, err
	}
	p.Flags = uint16(flags)

	switch {
	case p.Type == SendPropDataTable || p.Flags&SendPropFlagExclude != 0:
		p.Table, err = r.ReadString()
		return &p, err
	case p.Type == SendPropArray:
		elements, err := r.ReadBits(sendPropElementsBits)
		p.Elements = int(elements)
		return &p, err
	}

	low, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	high, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	bits, err := r.ReadBits(sendPropBitCountBits)
	if err != nil {
		return nil, err
	}
	p.Low = math.Float32frombits(low)
	p.High = math.Float32frombits(high)
	p.Bits = int(bits)
	return &p, nil
}
