package addressControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AddressInput struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

func List(db *gorm.DB, userID string) ([]models.Address, error) {
	addresses := []models.Address{}
	err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&addresses).Error
	return addresses, err
}

func Create(db *gorm.DB, userID string, in AddressInput) (*models.Address, error) {
	address := models.Address{
		UserID:        userID,
		RecipientName: strings.TrimSpace(in.RecipientName),
		Phone:         strings.TrimSpace(in.Phone),
		Line1:         strings.TrimSpace(in.Line1),
		Line2:         strings.TrimSpace(in.Line2),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Country:       strings.TrimSpace(in.Country),
	}

	var missing []string
	if address.RecipientName == "" {
		missing = append(missing, "recipient_name")
	}
	if address.Line1 == "" {
		missing = append(missing, "line1")
	}
	if address.City == "" {
		missing = append(missing, "city")
	}
	if address.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	if err := db.Create(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// Delete removes one of the user's addresses. Orders keep the text copy made
// at checkout.
func Delete(db *gorm.DB, userID string, id uint) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("address")
	}
	return nil
}

// GET /user/addresses
func GetAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addresses, err := List(db, middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// POST /user/addresses
func CreateAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		address, err := Create(db, middleware.UserID(c), input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

// DELETE /user/addresses/:id
func DeleteAddress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
			return
		}
		if err := Delete(db, middleware.UserID(c), uint(id)); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
	}
}
