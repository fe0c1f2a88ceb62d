package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHHMM(t *testing.T) {
	require.NoError(t, Register())
	v := binding.Validator.Engine().(*validator.Validate)

	type payload struct {
		Time string `binding:"hhmm"`
	}

	tests := []struct {
		name    string
		time    string
		wantErr bool
	}{
		{name: "morning", time: "09:00"},
		{name: "afternoon", time: "16:30"},
		{name: "midnight", time: "00:00"},
		{name: "last minute", time: "23:59"},
		{name: "hour out of range", time: "24:00", wantErr: true},
		{name: "minute out of range", time: "10:60", wantErr: true},
		{name: "missing leading zero", time: "9:00", wantErr: true},
		{name: "garbage", time: "noonish", wantErr: true},
		{name: "empty", time: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(payload{Time: tt.time})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
