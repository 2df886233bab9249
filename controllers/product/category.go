package productcontroller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/database"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name string `json:"name" binding:"required"`
}

func categoryNameTaken(db *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := db.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("category %q already exists", name)
	}
	return nil
}

func CreateCategory(db *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := categoryNameTaken(db, name, 0); err != nil {
		return nil, err
	}
	category := models.Category{Name: name}
	if err := db.Create(&category).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Validation("category %q already exists", name)
		}
		return nil, err
	}
	return &category, nil
}

func RenameCategory(db *gorm.DB, id uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	var category models.Category
	if err := db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category")
		}
		return nil, err
	}
	if err := categoryNameTaken(db, name, category.ID); err != nil {
		return nil, err
	}
	if err := db.Model(&category).Update("name", name).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Validation("category %q already exists", name)
		}
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category. Its products stay in the catalog
// without a category.
func DeleteCategory(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category")
			}
			return err
		}
		if err := tx.Unscoped().Model(&models.Product{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
}

func categoryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
		return 0, false
	}
	return uint(id), true
}

// POST /admin/categories
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		category, err := CreateCategory(db, input.Name)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// GET /categories
func GetAllCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories := []models.Category{}
		if err := db.Order("name ASC").Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// PUT /admin/categories/:id
func UpdateCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := categoryID(c)
		if !ok {
			return
		}
		var input CategoryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		category, err := RenameCategory(db, id, input.Name)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DELETE /admin/categories/:id
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := categoryID(c)
		if !ok {
			return
		}
		if err := DeleteCategory(db, id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
