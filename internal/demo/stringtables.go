package demo

import (
	"encoding/binary"
	"fmt"

	"github.com/glizzus/demovoice/internal/bitstream"
)

// StringTable is one table of a StringTables frame snapshot.
type StringTable struct {
	Name       string
	Entries    []StringTableEntry
	ClientSide []StringTableEntry
}

// StringTableEntry is a string with optional user data.
type StringTableEntry struct {
	Text string
	Data []byte
}

// ParseStringTables decodes the payload of a StringTables frame.
// Layout: [count:8] then per table [name:str][entries][hasClientSide:1][entries]
// where entries is [count:16] and per entry [text:str][hasData:1][len:16][data].
func ParseStringTables(data []byte) ([]StringTable, error) {
	r := bitstream.NewReader(data)

	count, err := r.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read table count: %w", err)
	}

	tables := make([]StringTable, 0, count)
	for i := 0; i < int(count); i++ {
		var table StringTable
		if table.Name, err = r.ReadString(); err != nil {
			return nil, fmt.Errorf("failed to read name of table %d: %w", i, err)
		}
		if table.Entries, err = readTableEntries(r); err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name, err)
		}

		hasClientSide, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name, err)
		}
		if hasClientSide {
			if table.ClientSide, err = readTableEntries(r); err != nil {
				return nil, fmt.Errorf("table %s client entries: %w", table.Name, err)
			}
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func readTableEntries(r *bitstream.Reader) ([]StringTableEntry, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	entries := make([]StringTableEntry, 0, count)
	for i := 0; i < int(count); i++ {
		var entry StringTableEntry
		if entry.Text, err = r.ReadString(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		hasData, err := r.ReadBool()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if hasData {
			size, err := r.ReadUint16()
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if entry.Data, err = r.ReadBytes(int(size)); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

const (
	userInfoTable = "userinfo"

	playerNameSize = 32
	playerGUIDSize = 33
	// playerInfoMinSize covers name, user id and guid.
	playerInfoMinSize = playerNameSize + 4 + playerGUIDSize
)

// PlayerInfo is the identifying part of a userinfo string table entry.
type PlayerInfo struct {
	Name    string
	UserID  int32
	SteamID string
}

// ParsePlayerInfo decodes the user data of a userinfo entry.
// Layout: [Name:32][UserID:4][GUID:33]...
func ParsePlayerInfo(data []byte) (*PlayerInfo, error) {
	if len(data) < playerInfoMinSize {
		return nil, fmt.Errorf("player info too short: expected at least %d bytes, got %d",
			playerInfoMinSize, len(data))
	}
	return &PlayerInfo{
		Name:    cString(data[:playerNameSize]),
		UserID:  int32(binary.LittleEndian.Uint32(data[playerNameSize:])),
		SteamID: cString(data[playerNameSize+4 : playerInfoMinSize]),
	}, nil
}

// Players returns the players listed in the userinfo table, skipping empty
// slots.
func Players(tables []StringTable) ([]PlayerInfo, error) {
	var players []PlayerInfo
	for _, table := range tables {
		if table.Name != userInfoTable {
			continue
		}
		for _, entry := range table.Entries {
			if len(entry.Data) == 0 {
				continue
			}
			info, err := ParsePlayerInfo(entry.Data)
			if err != nil {
				return nil, fmt.Errorf("userinfo entry %q: %w", entry.Text, err)
			}
			players = append(players, *info)
		}
	}
	return players, nil
}
