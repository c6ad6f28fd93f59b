package studio

import (
	"sync"

	"github.com/shouni/gemini-image-studio/pkg/client"
	"github.com/shouni/gemini-image-studio/pkg/domain"
)

const (
	DefaultBrushSize = 20
	MinBrushSize     = 1
	MaxBrushSize     = 200
)

// Point はキャンバス上の座標です。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BrushStroke はマスク描画の1ストロークです。
type BrushStroke struct {
	ID        string  `json:"id"`
	Points    []Point `json:"points"`
	BrushSize int     `json:"brushSize"`
}

// Notice は画面に表示するエラー通知です。
type Notice struct {
	Kind    client.ErrorKind `json:"kind"`
	Message string           `json:"message"`
	Detail  string           `json:"detail"`
}

// State はスタジオ画面の状態です。
type State struct {
	Generations          []domain.Generation `json:"generations"`
	Edits                []domain.Edit       `json:"edits"`
	CanvasImage          string              `json:"canvasImage,omitempty"`
	BrushStrokes         []BrushStroke       `json:"brushStrokes"`
	BrushSize            int                 `json:"brushSize"`
	ShowMasks            bool                `json:"showMasks"`
	SelectedGenerationID string              `json:"selectedGenerationId,omitempty"`
	SelectedEditID       string              `json:"selectedEditId,omitempty"`
	IsGenerating         bool                `json:"isGenerating"`
	LastError            *Notice             `json:"lastError,omitempty"`
}

func defaultState() State {
	return State{BrushSize: DefaultBrushSize, ShowMasks: true}
}

// Store は State をミューテックスで守るのだ。外に渡すのは常にコピー。
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore は初期状態の Store を作成します。
func NewStore() *Store {
	return &Store{state: defaultState()}
}

// Snapshot は現在の状態のディープコピーを返します。
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Reset は状態を初期値に戻します。
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = defaultState()
}

func (s *Store) SetCanvasImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CanvasImage = url
}

func (s *Store) AddBrushStroke(stroke BrushStroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stroke.Points = append([]Point(nil), stroke.Points...)
	s.state.BrushStrokes = append(s.state.BrushStrokes, stroke)
}

func (s *Store) ClearBrushStrokes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BrushStrokes = nil
}

// SetBrushSize はブラシサイズを MinBrushSize..MaxBrushSize に丸めて設定します。
func (s *Store) SetBrushSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BrushSize = min(max(size, MinBrushSize), MaxBrushSize)
}

func (s *Store) SetShowMasks(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ShowMasks = show
}

func (s *Store) AddGeneration(g domain.Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Generations = append(s.state.Generations, cloneGeneration(g))
}

func (s *Store) AddEdit(e domain.Edit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Edits = append(s.state.Edits, cloneEdit(e))
}

func (s *Store) SelectGeneration(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedGenerationID = id
}

func (s *Store) SelectEdit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedEditID = id
}

func (s *Store) SetGenerating(generating bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsGenerating = generating
}

// SetError は通知を設定します。nil で消去します。
func (s *Store) SetError(n *Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n != nil {
		c := *n
		n = &c
	}
	s.state.LastError = n
}

// begin は生成中でなければ IsGenerating を立てて前回のエラーを消します。
// 判定と更新を同じロックの中で行うため、同時に2つ走ることはありません。
func (s *Store) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGenerating {
		return ErrBusy
	}
	s.state.IsGenerating = true
	s.state.LastError = nil
	return nil
}

func (s State) clone() State {
	out := s
	out.Generations = nil
	for _, g := range s.Generations {
		out.Generations = append(out.Generations, cloneGeneration(g))
	}
	out.Edits = nil
	for _, e := range s.Edits {
		out.Edits = append(out.Edits, cloneEdit(e))
	}
	out.BrushStrokes = nil
	for _, b := range s.BrushStrokes {
		b.Points = append([]Point(nil), b.Points...)
		out.BrushStrokes = append(out.BrushStrokes, b)
	}
	if s.LastError != nil {
		n := *s.LastError
		out.LastError = &n
	}
	return out
}

func cloneGeneration(g domain.Generation) domain.Generation {
	g.Parameters = domain.GenerationParameters{
		Temperature: clonePtr(g.Parameters.Temperature),
		Seed:        clonePtr(g.Parameters.Seed),
	}
	g.ReferenceAssets = append([]domain.Asset(nil), g.ReferenceAssets...)
	g.OutputAssets = append([]domain.Asset(nil), g.OutputAssets...)
	return g
}

func cloneEdit(e domain.Edit) domain.Edit {
	e.MaskAsset = clonePtr(e.MaskAsset)
	e.Parameters = domain.GenerationParameters{
		Temperature: clonePtr(e.Parameters.Temperature),
		Seed:        clonePtr(e.Parameters.Seed),
	}
	e.ReferenceAssets = append([]domain.Asset(nil), e.ReferenceAssets...)
	e.OutputAssets = append([]domain.Asset(nil), e.OutputAssets...)
	return e
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
