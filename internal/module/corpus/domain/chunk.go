package domain

import (
	"encoding/json"
	"fmt"
)

// Chunk は検索可能なテキストの最小単位を表す。
// 一度インデックスへ投入したChunkは変更されない（同一IDでの再投入は重複として扱う）。
type Chunk struct {
	// ID はChunkの一意識別子（UUID文字列）
	ID string

	// Text は本文
	Text string

	// Metadata は付随情報（文字列・数値・真偽値のみを許容する閉じたマッピング）
	Metadata Metadata
}

// Candidate はひとつのインデックスに対するクエリが返した (Chunk, スコア) の組。
// Score がnilの場合はスコア欠損を意味し、確信度計算からは除外されるが
// コンテキストからは除外されない。
type Candidate struct {
	Chunk Chunk
	Score *float64
}

// Metadata はChunkに付随するメタデータのマッピング
type Metadata map[string]MetadataValue

// metadataKind はMetadataValueの型タグ
type metadataKind int

const (
	kindString metadataKind = iota
	kindNumber
	kindBool
)

// MetadataValue は文字列・数値・真偽値のいずれかを保持するタグ付きユニオン。
// JSONへの直列化はそのままのスカラー値として行われる。
type MetadataValue struct {
	kind metadataKind
	str  string
	num  float64
	b    bool
}

// StringValue は文字列のMetadataValueを作成する
func StringValue(s string) MetadataValue {
	return MetadataValue{kind: kindString, str: s}
}

// NumberValue は数値のMetadataValueを作成する
func NumberValue(n float64) MetadataValue {
	return MetadataValue{kind: kindNumber, num: n}
}

// BoolValue は真偽値のMetadataValueを作成する
func BoolValue(b bool) MetadataValue {
	return MetadataValue{kind: kindBool, b: b}
}

// String は文字列値と、値が文字列であったかどうかを返す
func (v MetadataValue) String() (string, bool) {
	return v.str, v.kind == kindString
}

// Number は数値と、値が数値であったかどうかを返す
func (v MetadataValue) Number() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// Bool は真偽値と、値が真偽値であったかどうかを返す
func (v MetadataValue) Bool() (bool, bool) {
	return v.b, v.kind == kindBool
}

// MarshalJSON はjson.Marshalerの実装
func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON はjson.Unmarshalerの実装。
// 文字列・数値・真偽値以外（配列・オブジェクト・null）はエラーとする。
func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case string:
		*v = StringValue(value)
	case float64:
		*v = NumberValue(value)
	case bool:
		*v = BoolValue(value)
	default:
		return fmt.Errorf("unsupported metadata value type %T", raw)
	}
	return nil
}
