// Package errors はプロジェクト全体のエラーハンドリングを提供します。
// 学習時と推論時の特徴量スキーマのずれを早期に検出できるよう、
// 構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError は未学習のアーティファクト（imputer、encoder等）で
// Transform系メソッドを呼び出した場合のエラーです。
type NotFittedError struct {
	Name   string
	Method string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("transit: %s: not fitted. Load a trained artifact before calling %s()", e.Name, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("name", e.Name).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(name, method string) error {
	err := &NotFittedError{Name: name, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("transit: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ContractError は特徴量コントラクト違反（学習時と推論時のスキーマのずれ）を表す
// 致命的なエラーです。列数・列順の不一致は黙って補正せず、必ずこのエラーで停止します。
type ContractError struct {
	Op       string
	Expected int
	Got      int
	Detail   string
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("transit: %s: feature schema mismatch. Expected %d columns, got %d", e.Op, e.Expected, e.Got)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ContractError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected_columns", e.Expected).
		Int("got_columns", e.Got).
		Str("detail", e.Detail).
		Str("type", "ContractError")
}

// NewContractError は新しいContractErrorを作成し、スタックトレースを付与します。
func NewContractError(op string, expected, got int, detail string) error {
	err := &ContractError{Op: op, Expected: expected, Got: got, Detail: detail}
	return errors.WithStack(err)
}

// InputError は呼び出し側の入力不備（必須列の欠落、行の要素数不正、
// 未知のカテゴリ値など）を表すエラーです。バリデーションエラーとして
// バッチ全体を棄却します（行単位の部分成功はありません）。
type InputError struct {
	Reason  string
	Columns []string // 問題のある列名
	Rows    []int    // 問題のある行番号
	Values  []string // 問題のある値（未知カテゴリ等）
	Known   []string // 許容される値の一覧（未知カテゴリ等）
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString("transit: invalid input: ")
	b.WriteString(e.Reason)
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, ": columns %v", e.Columns)
	}
	if len(e.Rows) > 0 {
		fmt.Fprintf(&b, ": rows %v", e.Rows)
	}
	if len(e.Values) > 0 {
		fmt.Fprintf(&b, ": values %v", e.Values)
	}
	if len(e.Known) > 0 {
		fmt.Fprintf(&b, " (known: %v)", e.Known)
	}
	return b.String()
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("reason", e.Reason).
		Strs("columns", e.Columns).
		Ints("rows", e.Rows).
		Strs("values", e.Values).
		Str("type", "InputError")
}

// NewInputError は新しいInputErrorを作成します。Err()でスタックトレースを付与します。
func NewInputError(reason string) *InputError {
	return &InputError{Reason: reason}
}

// WithColumns は問題のある列名を設定します。
func (e *InputError) WithColumns(cols ...string) *InputError {
	e.Columns = cols
	return e
}

// WithRows は問題のある行番号を設定します。
func (e *InputError) WithRows(rows ...int) *InputError {
	e.Rows = rows
	return e
}

// WithValues は問題のある値と許容される値の一覧を設定します。
func (e *InputError) WithValues(values, known []string) *InputError {
	e.Values = values
	e.Known = known
	return e
}

// Err はスタックトレースを付与したerrorとして返します。
func (e *InputError) Err() error {
	return errors.WithStack(e)
}

// IndeterminateDatasetError はデータセット種別の自動判定に失敗した場合のエラーです。
// 各変種とのマッチ数を保持します。
type IndeterminateDatasetError struct {
	Matches map[string]int
	Minimum int
}

func (e *IndeterminateDatasetError) Error() string {
	parts := make([]string, 0, len(e.Matches))
	for _, name := range sortedKeys(e.Matches) {
		parts = append(parts, fmt.Sprintf("%s=%d", name, e.Matches[name]))
	}
	return fmt.Sprintf("transit: cannot determine dataset type: matching columns %s. Need at least %d matching columns and a strict winner",
		strings.Join(parts, ", "), e.Minimum)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IndeterminateDatasetError) MarshalZerologObject(event *zerolog.Event) {
	d := zerolog.Dict()
	for _, name := range sortedKeys(e.Matches) {
		d.Int(name, e.Matches[name])
	}
	event.Dict("matches", d).
		Int("minimum", e.Minimum).
		Str("type", "IndeterminateDatasetError")
}

// NewIndeterminateDatasetError は新しいIndeterminateDatasetErrorを作成し、
// スタックトレースを付与します。
func NewIndeterminateDatasetError(matches map[string]int, minimum int) error {
	err := &IndeterminateDatasetError{Matches: matches, Minimum: minimum}
	return errors.WithStack(err)
}

// ArtifactError はモデルアーティファクトの読み込み失敗（ファイル欠損・破損）を表す
// エラーです。変種単位で発生し、該当変種への以後のアクセスでも同じエラーを返します。
type ArtifactError struct {
	Variant string
	File    string
	Err     error
}

func (e *ArtifactError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("transit: artifact load failed for variant %q: %s: %v", e.Variant, e.File, e.Err)
	}
	return fmt.Sprintf("transit: artifact load failed for variant %q: %v", e.Variant, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("variant", e.Variant).
		Str("file", e.File).
		AnErr("cause", e.Err).
		Str("type", "ArtifactError")
}

// NewArtifactError は新しいArtifactErrorを作成し、スタックトレースを付与します。
func NewArtifactError(variant, file string, cause error) error {
	err := &ArtifactError{Variant: variant, File: file, Err: cause}
	return errors.WithStack(err)
}

// StageError は推論パイプラインのどの段階で失敗したかを表すエラーです。
// 利用者向けのエラーには必ず失敗した段階が含まれます。
type StageError struct {
	Stage   string // normalize / engineer / impute / infer / decode
	Variant string
	Rows    int
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("transit: %s stage failed (variant=%s, rows=%d): %v", e.Stage, e.Variant, e.Rows, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", e.Stage).
		Str("variant", e.Variant).
		Int("rows", e.Rows).
		AnErr("cause", e.Err).
		Str("type", "StageError")
}

// NewStageError は新しいStageErrorを作成し、スタックトレースを付与します。
func NewStageError(stage, variant string, rows int, cause error) error {
	err := &StageError{Stage: stage, Variant: variant, Rows: rows, Err: cause}
	return errors.WithStack(err)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyBatch は空のバッチが渡された場合のエラーです。
	ErrEmptyBatch = New("empty batch")
)
