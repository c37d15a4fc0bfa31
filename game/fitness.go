package game

import "github.com/pthm-cable/selfdrive/components"

// FitnessFunc scores a controlled car; the highest score leads.
type FitnessFunc func(pose components.Pose, damaged bool) float64

// Progress scores distance travelled up a straight road: the lowest y leads,
// damaged or not. It is meaningless for roads with turns.
func Progress(pose components.Pose, _ bool) float64 {
	return -pose.Y
}

// updateLeader selects the best controlled car. Ties go to the lowest car ID.
func (g *Game) updateLeader() {
	g.hasLeader = false
	var bestScore float64
	var bestID uint32

	query := g.carFilter.Query()
	for query.Next() {
		agent, pose, _, damage := query.Get()
		if agent.Kind == components.KindTraffic {
			continue
		}

		score := g.fitness(*pose, damage.Damaged)
		if !g.hasLeader || score > bestScore || (score == bestScore && agent.ID < bestID) {
			g.leader = query.Entity()
			g.hasLeader = true
			bestScore = score
			bestID = agent.ID
		}
	}
}
