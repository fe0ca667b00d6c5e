package controllers

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

var jsonNull = []byte("null")

// optional* fields distinguish an absent key from an explicit null, which
// clears an override.

type optionalUint struct {
	Set   bool
	Value *uint
}

func (o *optionalUint) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		o.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type optionalInt struct {
	Set   bool
	Value *int
}

func (o *optionalInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type optionalDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

func (o *optionalDecimal) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		o.Value = nil
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
