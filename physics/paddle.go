package physics

// Side identifies which half of the field a paddle defends.
type Side int

const (
	Left Side = iota
	Right
)

// Direction is a per-tick movement intent for a paddle.
type Direction int

const (
	None Direction = iota
	Up
	Down
)

// Paddle is one player's paddle state. X is fixed per side once placed;
// only Y moves.
type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Side   Side    `json:"side"`
}

func (p *Paddle) GetX() float64      { return p.X }
func (p *Paddle) GetY() float64      { return p.Y }
func (p *Paddle) GetWidth() float64  { return p.Width }
func (p *Paddle) GetHeight() float64 { return p.Height }
