package routes

import (
	"github.com/Justjoseph0/e-commerce-backend/config"
	"github.com/Justjoseph0/e-commerce-backend/media"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators every route group is built from. Images may be
// nil when no image store is configured.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Gateway  payment.Gateway
	Notifier notify.Notifier
	Hub      *notify.Hub
	Images   media.ImageStore
}

// SetupRoutes is the single entry‐point that wires up Public, User, and Admin route groups.
func SetupRoutes(r *gin.Engine, d Deps) {
	// 1️⃣ Public routes (no auth, webhook is signature-checked)
	SetupPublicRoutes(r, d)

	// 2️⃣ User routes (JWT‐protected)
	SetupUserRoutes(r, d)

	// 3️⃣ Admin routes (JWT + capability)
	SetupAdminRoutes(r, d)
}
