package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleKindergarten() Kindergarten {
	return Kindergarten{
		Name:      "广州市天河区第一幼儿园",
		Nature:    "公办",
		Inclusive: InclusiveYes,
		Scale:     "12",
		Address:   "广州市天河区天河路1号",
		Fee:       "1500",
		Phone:     "020-38888888",
	}
}

func TestKindergarten_MarshalJSON_KeyOrder(t *testing.T) {
	data, err := json.Marshal(sampleKindergarten())
	require.NoError(t, err)

	want := `{"幼儿园名称":"广州市天河区第一幼儿园","办园性质":"公办","是否普惠":"是","规模（班）":"12",` +
		`"幼儿园地址":"广州市天河区天河路1号","保教费收费标准（元/月/生）":"1500","幼儿园联系电话":"020-38888888"}`
	assert.Equal(t, want, string(data))
}

func TestKindergarten_MarshalJSON_NoHTMLEscape(t *testing.T) {
	k := Kindergarten{Name: "A&B<幼儿园>"}
	data, err := json.Marshal(k)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"A&B<幼儿园>"`)
}

func TestKindergarten_UnmarshalJSON(t *testing.T) {
	in := `{"幼儿园名称":"甲幼儿园","办园性质":"民办","是否普惠":"否","规模（班）":9,` +
		`"幼儿园地址":"广州","保教费收费标准（元/月/生）":"","幼儿园联系电话":null,"extra":"x"}`

	var k Kindergarten
	require.NoError(t, json.Unmarshal([]byte(in), &k))
	assert.Equal(t, "甲幼儿园", k.Name)
	assert.Equal(t, "民办", k.Nature)
	assert.Equal(t, InclusiveNo, k.Inclusive)
	assert.Equal(t, "9", k.Scale)
	assert.Equal(t, "广州", k.Address)
	assert.Empty(t, k.Fee)
	assert.Empty(t, k.Phone)
}

func TestKindergarten_RoundTrip(t *testing.T) {
	list := []Kindergarten{sampleKindergarten(), {Name: "乙幼儿园（国际班）", Fee: "4000"}}
	data, err := json.Marshal(list)
	require.NoError(t, err)

	var got []Kindergarten
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, list, got)
}

func TestKindergarten_UnmarshalJSON_Invalid(t *testing.T) {
	var k Kindergarten
	err := json.Unmarshal([]byte(`["not","an","object"]`), &k)
	assert.Error(t, err)
}

func TestGeocode_IsZero(t *testing.T) {
	assert.True(t, Geocode{}.IsZero())
	assert.False(t, Geocode{Level: "兴趣点"}.IsZero())
}
