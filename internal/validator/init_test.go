package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cellMessage struct {
	Type  string `validate:"required,oneof=move reset"`
	Index *int   `validate:"omitempty,cell"`
}

func intPtr(i int) *int { return &i }

func TestGetValidator_Cell(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name    string
		msg     cellMessage
		wantErr bool
	}{
		{name: "first cell", msg: cellMessage{Type: "move", Index: intPtr(0)}},
		{name: "last cell", msg: cellMessage{Type: "move", Index: intPtr(8)}},
		{name: "no index", msg: cellMessage{Type: "reset"}},
		{name: "below board", msg: cellMessage{Type: "move", Index: intPtr(-1)}, wantErr: true},
		{name: "above board", msg: cellMessage{Type: "move", Index: intPtr(9)}, wantErr: true},
		{name: "unknown type", msg: cellMessage{Type: "undo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
