// stats.go implements the aggregate dashboard endpoint. The counts are
// derived by walking the enumeration indexes; at the scale of an inspection
// team this is cheaper than maintaining counters on every write.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/checklist-rve/checklist-rve/internal/repositories"
)

// StatsHandlers handles the aggregate stats endpoint
type StatsHandlers struct {
	userRepo      *repositories.UserRepository
	checklistRepo *repositories.ChecklistRepository
	linkRepo      *repositories.LinkRepository
}

// NewStatsHandlers creates a new StatsHandlers instance
func NewStatsHandlers(
	userRepo *repositories.UserRepository,
	checklistRepo *repositories.ChecklistRepository,
	linkRepo *repositories.LinkRepository,
) *StatsHandlers {
	return &StatsHandlers{
		userRepo:      userRepo,
		checklistRepo: checklistRepo,
		linkRepo:      linkRepo,
	}
}

// DashboardHandler returns aggregate counts for the admin dashboard
// GET /api/v1/admin/stats/dashboard
func (h *StatsHandlers) DashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		checklists, err := h.checklistRepo.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		bySource := map[string]int{}
		for i := range checklists {
			bySource[checklists[i].Source]++
		}

		users, err := h.userRepo.List(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		byRole := map[string]int{}
		for i := range users {
			byRole[users[i].Role]++
		}

		links, err := h.linkRepo.ListActive(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		now := time.Now().UTC()
		linkStates := map[string]int{"pending": 0, "used": 0, "expired": 0}
		for i := range links {
			switch {
			case links[i].Used:
				linkStates["used"]++
			case links[i].Expired(now):
				linkStates["expired"]++
			default:
				linkStates["pending"]++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"stats": gin.H{
				"checklists": gin.H{
					"total":     len(checklists),
					"by_source": bySource,
				},
				"users": gin.H{
					"total":   len(users),
					"by_role": byRole,
				},
				"links": gin.H{
					"total":    len(links),
					"by_state": linkStates,
				},
			},
		})
	}
}
