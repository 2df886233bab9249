package middleware

import (
	"log"
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoadUser makes sure the token's user has a local row, creating it on the
// first request and keeping email and role in step with the token.
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		user := models.User{ID: userID}
		attrs := models.User{Email: Email(c), Username: Email(c), Role: Role(c)}

		if err := db.Where(models.User{ID: userID}).Attrs(attrs).FirstOrCreate(&user).Error; err != nil {
			log.Printf("❌ load user %s: %v", userID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		updates := map[string]interface{}{}
		if attrs.Email != "" && user.Email != attrs.Email {
			updates["email"] = attrs.Email
		}
		if user.Role != attrs.Role {
			updates["role"] = attrs.Role
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				log.Printf("⚠️ sync user %s: %v", userID, err)
			}
		}
		c.Next()
	}
}
