package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/uslugi-miniapp/internal/models"
)

// Константы валидации
const (
	MinCategoryLength         = 2
	MaxCategoryLength         = 100
	MinOrderDescriptionLength = 10
	MaxOrderDescriptionLength = 2000
	MinContactLength          = 3
	MaxContactLength          = 200
	MaxCommentLength          = 1000
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateOrderInput проверяет форму создания заказа до похода в сеть.
// cities — актуальный список городов с бэкенда; пустой список отключает
// проверку принадлежности (список ещё не загрузился).
func ValidateOrderInput(category, description, city, contact string, cities []string) error {
	if err := ValidateLength("категория", strings.TrimSpace(category), MinCategoryLength, MaxCategoryLength); err != nil {
		return err
	}
	if err := ValidateLength("описание", strings.TrimSpace(description), MinOrderDescriptionLength, MaxOrderDescriptionLength); err != nil {
		return err
	}
	if err := ValidateLength("контакт", strings.TrimSpace(contact), MinContactLength, MaxContactLength); err != nil {
		return err
	}

	city = strings.TrimSpace(city)
	if city == "" {
		return fmt.Errorf("город обязателен")
	}
	if len(cities) > 0 {
		found := false
		for _, c := range cities {
			if c == city {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("город %q не поддерживается", city)
		}
	}
	return nil
}

// ValidateRating проверяет оценку отзыва.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("рейтинг должен быть от 1 до 5")
	}
	return nil
}

// ValidateComplaintReason проверяет причину жалобы.
func ValidateComplaintReason(reason string) error {
	if _, ok := models.ValidComplaintReasons[reason]; !ok {
		return fmt.Errorf("неизвестная причина жалобы %q", reason)
	}
	return nil
}
