package storage

import (
	"encoding/json"
	"errors"

	"oneiros/internal/model"
)

const CurrentCodecVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

type versionedPayload struct {
	CodecVersion int             `json:"codec_version"`
	Payload      json.RawMessage `json:"payload"`
}

func encode(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(versionedPayload{CodecVersion: CurrentCodecVersion, Payload: payload})
}

func decode(data []byte, value any) error {
	var wrapped versionedPayload
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return json.Unmarshal(wrapped.Payload, value)
}

func EncodeRun(record model.RunRecord) ([]byte, error) {
	return encode(record)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var record model.RunRecord
	if err := decode(data, &record); err != nil {
		return model.RunRecord{}, err
	}
	return record, nil
}

func EncodeStatistics(statistics model.RunStatistics) ([]byte, error) {
	return encode(statistics)
}

func DecodeStatistics(data []byte) (model.RunStatistics, error) {
	var statistics model.RunStatistics
	if err := decode(data, &statistics); err != nil {
		return model.RunStatistics{}, err
	}
	return statistics, nil
}

func EncodeBestCode(code []float64) ([]byte, error) {
	return encode(code)
}

func DecodeBestCode(data []byte) ([]float64, error) {
	var code []float64
	if err := decode(data, &code); err != nil {
		return nil, err
	}
	return code, nil
}
