package year

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/trezcool/shule/core"
)

var (
	nameRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

	errBadNameFormat  = errors.New("name must be formatted as YYYY-YYYY")
	errNonConsecutive = errors.New("end year must be the start year plus one")
)

// Year is the tenant-like partition every operational record belongs to.
// At most one Year is active at any time; the flag is flipped atomically by
// Service.Activate.
type Year struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"` // e.g. "2023-2024"
	StartYear int       `db:"start_year" json:"start_year"`
	EndYear   int       `db:"end_year" json:"end_year"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// ParseName parses and checks an academic year display name.
func ParseName(name string) (start, end int, err error) {
	m := nameRegex.FindStringSubmatch(core.CleanString(name))
	if m == nil {
		return 0, 0, errBadNameFormat
	}
	start, _ = strconv.Atoi(m[1])
	end, _ = strconv.Atoi(m[2])
	if end != start+1 {
		return 0, 0, errNonConsecutive
	}
	return start, end, nil
}

type NewYear struct {
	Name string `json:"name" validate:"required,yearname"`
}

func (ny *NewYear) Validate() error {
	ny.Name = core.CleanString(ny.Name)
	return core.Validate.Struct(ny)
}
