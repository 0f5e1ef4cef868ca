package id_test

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/label/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix id.Prefix
	}{
		{"SaleID", id.NewSaleID, id.PrefixSale},
		{"DistributionID", id.NewDistributionID, id.PrefixDistribution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn()
			assert.False(t, got.IsNil())
			assert.Equal(t, tt.prefix, got.Prefix())
			assert.True(t, strings.HasPrefix(got.String(), string(tt.prefix)+"_"))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"SaleID", id.NewSaleID, id.ParseSaleID},
		{"DistributionID", id.NewDistributionID, id.ParseDistributionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			require.NoError(t, err)
			assert.Equal(t, original.String(), parsed.String())
		})
	}
}

func TestParseWrongPrefix(t *testing.T) {
	sale := id.NewSaleID()
	_, err := id.ParseDistributionID(sale.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected prefix "dist"`)
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	require.Error(t, err)
}

func TestNilID(t *testing.T) {
	var i id.ID
	assert.True(t, i.IsNil())
	assert.Equal(t, "", i.String())
	assert.Equal(t, id.Prefix(""), i.Prefix())

	v, err := i.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSON(t *testing.T) {
	type record struct {
		ID id.SaleID `json:"id"`
	}

	original := record{ID: id.NewSaleID()}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.ID.String(), decoded.ID.String())

	var empty record
	require.NoError(t, json.Unmarshal([]byte(`{"id":""}`), &empty))
	assert.True(t, empty.ID.IsNil())
}

func TestScan(t *testing.T) {
	original := id.NewDistributionID()

	tests := []struct {
		name    string
		src     any
		wantNil bool
		wantErr bool
	}{
		{"string", original.String(), false, false},
		{"bytes", []byte(original.String()), false, false},
		{"nil", nil, true, false},
		{"empty string", "", true, false},
		{"int", 42, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got id.ID
			err := got.Scan(tt.src)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, got.IsNil())
			if !tt.wantNil {
				assert.Equal(t, original.String(), got.String())
			}
		})
	}
}

func TestGobRoundTrip(t *testing.T) {
	type record struct {
		ID     id.ID
		Parent id.ID
		Amount int64
	}
	in := record{ID: id.NewSaleID(), Amount: 100}

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(in))

	var out record
	require.NoError(t, gob.NewDecoder(&buf).Decode(&out))
	assert.Equal(t, in.ID.String(), out.ID.String())
	assert.True(t, out.Parent.IsNil())
	assert.Equal(t, int64(100), out.Amount)
}
