package label_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/label"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want label.Code
	}{
		{"nil", nil, label.CodeOK},
		{"not found", label.ErrNotFound, label.CodeNotFound},
		{"artist not found", label.ErrArtistNotFound, label.CodeNotFound},
		{"song not found", label.ErrSongNotFound, label.CodeNotFound},
		{"wrapped song not found", fmt.Errorf("buy: %w", label.ErrSongNotFound), label.CodeNotFound},
		{"artist exists", label.ErrArtistExists, label.CodeAlreadyExists},
		{"song exists", label.ErrSongExists, label.CodeAlreadyExists},
		{"no royalties", label.ErrNoRoyalties, label.CodeUnauthorized},
		{"already distributed", label.ErrRoyaltiesDistributed, label.CodeUnauthorized},
		{"store closed", label.ErrStoreClosed, label.Code(-1)},
		{"foreign", errors.New("disk on fire"), label.Code(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, label.ErrorCode(tt.err))
		})
	}
}

func TestCodeValues(t *testing.T) {
	assert.Equal(t, 101, int(label.CodeNotFound))
	assert.Equal(t, 102, int(label.CodeAlreadyExists))
	assert.Equal(t, 103, int(label.CodeUnauthorized))
	assert.Equal(t, "unauthorized", label.CodeUnauthorized.String())
	assert.Equal(t, "code(-1)", label.Code(-1).String())
}
