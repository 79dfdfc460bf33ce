package table

import (
	"fmt"

	"github.com/txn2/dataexec/pkg/frame"
)

// Payload is data accepted by Exec.Add: a Record, Records or Tabular.
type Payload interface {
	isPayload()
}

// Record is one row of a registered table, keyed by column name.
type Record struct {
	Table  string
	Values map[string]any
}

// Records is a batch of rows, possibly spanning several tables, written in
// one transaction.
type Records []Record

// IfExists is the collision policy of a tabular write.
type IfExists string

// Collision policies.
const (
	IfExistsAppend  IfExists = "append"
	IfExistsReplace IfExists = "replace"
	IfExistsFail    IfExists = "fail"
)

// Tabular is a frame written to the table Name. Column names are
// snake_cased before writing. The row-position column is opt-in: it is only
// written, first, when Index is set. It is named "index", or "level_0" when
// the frame already has an "index" column.
type Tabular struct {
	Frame    *frame.Frame
	Name     string
	IfExists IfExists
	Index    bool
}

func (Record) isPayload()  {}
func (Records) isPayload() {}
func (Tabular) isPayload() {}

func (p IfExists) validate() (IfExists, error) {
	switch p {
	case "":
		return IfExistsAppend, nil
	case IfExistsAppend, IfExistsReplace, IfExistsFail:
		return p, nil
	default:
		return "", fmt.Errorf("invalid if-exists policy %q", string(p))
	}
}
