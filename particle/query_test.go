package particle_test

import (
	"testing"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/particle"

	Vec "diesel.com/particlesph/vector"
)

type collectingQuery struct{ hits []int }

func (q *collectingQuery) ReportParticle(index int) bool {
	q.hits = append(q.hits, index)
	return true
}

func TestQueryAABBFindsOnlyContained(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(100, 100)})

	var q collectingQuery
	sys.QueryAABB(&q, geometry.NewAABB(Vec.New(-1, -1), Vec.New(1, 1)))
	if len(q.hits) != 1 || q.hits[0] != 0 {
		t.Errorf("QueryAABB hits = %v, want [0]", q.hits)
	}
}

func TestQueryAABBSkipsZombies(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)})
	sys.DestroyParticle(0, false)

	var q collectingQuery
	sys.QueryAABB(&q, geometry.NewAABB(Vec.New(-1, -1), Vec.New(1, 1)))
	if len(q.hits) != 0 {
		t.Errorf("QueryAABB should skip zombie-flagged particles, got %v", q.hits)
	}
}

type rayHit struct {
	index    int
	fraction float64
}

type collectingRayCast struct{ hits []rayHit }

func (q *collectingRayCast) ReportParticle(index int, point, normal Vec.Vec2, fraction float64) float64 {
	q.hits = append(q.hits, rayHit{index, fraction})
	return fraction
}

func TestRayCastOrdersHitsByFraction(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(8, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(2, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(5, 0)})

	var q collectingRayCast
	sys.RayCast(&q, Vec.New(0, 0), Vec.New(10, 0))
	if len(q.hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(q.hits))
	}
	for i := 1; i < len(q.hits); i++ {
		if q.hits[i].fraction < q.hits[i-1].fraction {
			t.Fatalf("hits not sorted by fraction: %v", q.hits)
		}
	}
	if q.hits[0].index != 1 {
		t.Errorf("nearest hit should be index 1 (closest to the ray origin), got %d", q.hits[0].index)
	}
}
