package route

import (
	"container/heap"
	"fmt"
	"log"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/risk"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

// SearchParams bounds and tunes one grid search.
type SearchParams struct {
	StepDeg           float64
	MaxIterations     int
	TimeBudget        time.Duration
	TimeCheckEvery    int
	RiskRadiusKm      float64
	RiskMultiplier    float64
	ArrivalKm         float64
	ExpansionCutoff   float64
	MaxPathPoints     int
	SimplifyTolerance float64
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		StepDeg:           0.004,
		MaxIterations:     500,
		TimeBudget:        2 * time.Second,
		TimeCheckEvery:    10,
		RiskRadiusKm:      1.0,
		RiskMultiplier:    2.0,
		ArrivalKm:         0.5,
		ExpansionCutoff:   0.8,
		MaxPathPoints:     100,
		SimplifyTolerance: 0.10,
	}
}

// SearchStats describes how a search ended. Degraded is empty when the search
// ran to arrival inside its budgets.
type SearchStats struct {
	Iterations int
	Explored   int
	Elapsed    time.Duration
	Arrived    bool
	Degraded   string
}

const (
	degradedIterations = "iteration budget"
	degradedTime       = "time budget"
	degradedFrontier   = "frontier exhausted"
	degradedTruncated  = "path truncated"
	degradedEmpty      = "no nodes explored"
)

// Engine runs risk-weighted A* over an implicit lattice anchored at start.
type Engine struct {
	Params SearchParams
	Now    func() time.Time
}

func NewEngine(p SearchParams) Engine {
	return Engine{Params: p, Now: time.Now}
}

func (e Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// cell is a lattice offset from the start coordinate, in steps.
type cell struct {
	i, j int
}

type frontierItem struct {
	at       cell
	cost     float64
	priority float64
	seq      uint64
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(a, b int) bool {
	if f[a].priority == f[b].priority {
		return f[a].seq < f[b].seq
	}
	return f[a].priority < f[b].priority
}
func (f frontier) Swap(a, b int) { f[a], f[b] = f[b], f[a] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

var neighborOffsets = [8]cell{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Search returns a path from start toward end. It never fails: budget
// exhaustion, an empty frontier or an internal fault all fall back to the best
// partial path or the direct segment, and the reason lands in stats.Degraded.
func (e Engine) Search(start, end geo.Coordinate, incidents []risk.Incident) (path []geo.Coordinate, stats SearchStats) {
	began := e.now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("route search recovered: %v", r)
			path = []geo.Coordinate{start, end}
			stats.Degraded = fmt.Sprintf("panic: %v", r)
		}
		stats.Elapsed = e.now().Sub(began)
	}()

	p := e.Params
	if p.StepDeg <= 0 {
		p.StepDeg = DefaultSearchParams().StepDeg
	}
	if p.TimeCheckEvery <= 0 {
		p.TimeCheckEvery = 1
	}
	if p.MaxPathPoints < 2 {
		p.MaxPathPoints = 2
	}

	model := risk.Model{RadiusKm: p.RiskRadiusKm, Now: func() time.Time { return began }}
	weighted := risk.Weighted(incidents, began)

	at := func(c cell) geo.Coordinate {
		return geo.Coordinate{
			Lat: start.Lat + float64(c.i)*p.StepDeg,
			Lng: start.Lng + float64(c.j)*p.StepDeg,
		}
	}

	origin := cell{}
	cost := map[cell]float64{origin: 0}
	parent := map[cell]cell{}
	riskAt := map[cell]float64{}

	best := origin
	bestH := geo.Distance(start, end)

	open := &frontier{{at: origin, cost: 0, priority: bestH}}
	var seq uint64
	expandLimit := int(float64(p.MaxIterations) * p.ExpansionCutoff)

	terminal := origin
	for open.Len() > 0 {
		if stats.Iterations >= p.MaxIterations {
			stats.Degraded = degradedIterations
			break
		}
		if stats.Iterations%p.TimeCheckEvery == 0 && e.now().Sub(began) > p.TimeBudget {
			stats.Degraded = degradedTime
			break
		}

		current := heap.Pop(open).(frontierItem)
		stats.Iterations++
		if current.cost > cost[current.at] {
			continue
		}
		stats.Explored++

		here := at(current.at)
		if geo.Distance(here, end) < p.ArrivalKm {
			stats.Arrived = true
			terminal = current.at
			break
		}

		if stats.Iterations > expandLimit {
			continue
		}

		for _, off := range neighborOffsets {
			next := cell{current.at.i + off.i, current.at.j + off.j}
			nextAt := at(next)

			r, ok := riskAt[next]
			if !ok {
				r = model.Aggregate(nextAt, weighted)
				riskAt[next] = r
			}

			newCost := current.cost + geo.Distance(here, nextAt) + r*p.RiskMultiplier
			if old, seen := cost[next]; seen && newCost >= old {
				continue
			}
			cost[next] = newCost
			parent[next] = current.at

			h := geo.Distance(nextAt, end)
			if h < bestH {
				best, bestH = next, h
			}
			seq++
			heap.Push(open, frontierItem{at: next, cost: newCost, priority: newCost + h, seq: seq})
		}
	}

	if stats.Explored == 0 {
		if stats.Degraded == "" {
			stats.Degraded = degradedEmpty
		}
		return nil, stats
	}
	if !stats.Arrived {
		terminal = best
		if stats.Degraded == "" {
			stats.Degraded = degradedFrontier
		}
	}

	// Leave room for the end coordinate.
	limit := p.MaxPathPoints - 1
	reversed := make([]geo.Coordinate, 0, 16)
	node := terminal
	for {
		reversed = append(reversed, at(node))
		if node == origin {
			break
		}
		if len(reversed) >= limit {
			stats.Degraded = degradedTruncated
			break
		}
		prev, ok := parent[node]
		if !ok {
			break
		}
		node = prev
	}

	path = make([]geo.Coordinate, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	if len(path) < 2 {
		return []geo.Coordinate{start, end}, stats
	}
	if path[len(path)-1] != end {
		path = append(path, end)
	}
	return Simplify(path, p.SimplifyTolerance), stats
}

// Simplify drops interior points whose detour is within tolerance of the
// direct hop between their neighbours. Endpoints are always kept.
func Simplify(path []geo.Coordinate, tolerance float64) []geo.Coordinate {
	if tolerance <= 0 || len(path) < 3 {
		return path
	}
	out := make([]geo.Coordinate, 0, len(path))
	out = append(out, path[0])
	for i := 1; i < len(path)-1; i++ {
		prev := out[len(out)-1]
		direct := geo.Distance(prev, path[i+1])
		detour := geo.Distance(prev, path[i]) + geo.Distance(path[i], path[i+1])
		if detour <= direct*(1+tolerance) {
			continue
		}
		out = append(out, path[i])
	}
	return append(out, path[len(path)-1])
}
