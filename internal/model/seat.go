package model

import (
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
)

// SeatID names a seat by row index (0 = row "A") and 1-based column.
// It marshals to and from labels such as "A1" or "AB12".
type SeatID struct {
	Row int
	Col int
}

func (s SeatID) String() string {
	return rowLabel(s.Row) + strconv.Itoa(s.Col)
}

func (s SeatID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SeatID) UnmarshalText(b []byte) error {
	id, err := ParseSeatID(string(b))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// ParseSeatID parses a label made of row letters followed by a column number.
func ParseSeatID(label string) (SeatID, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return SeatID{}, apperr.InvalidArgument("parseSeat", "malformed seat label %q", label)
	}
	row, _ := rowIndex(s[:i])
	col, err := strconv.Atoi(s[i:])
	if err != nil || col < 1 {
		return SeatID{}, apperr.InvalidArgument("parseSeat", "malformed seat label %q", label)
	}
	return SeatID{Row: row, Col: col}, nil
}

// rowLabel converts a zero-based index to A, B, ..., Z, AA, AB, ...
func rowLabel(i int) string {
	if i < 0 {
		return "?"
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

func rowIndex(label string) (int, bool) {
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// SortSeats orders seats row first, then column.
func SortSeats(seats []SeatID) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Col < seats[j].Col
	})
}

// SeatLabels renders seats as their labels.
func SeatLabels(seats []SeatID) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = s.String()
	}
	return out
}

func seatErr(op string, s SeatID) error {
	return apperr.NotFound(op, "seat %s is not part of the cinema layout", s)
}
