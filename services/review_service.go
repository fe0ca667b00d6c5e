package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/cache"
	"hotel-booking/events"
	"hotel-booking/models"
	"hotel-booking/utils"
)

const (
	maxCommentLength     = 500
	defaultReviewPage    = 5
	maxReviewPageSize    = 20
	anonymousCustomerTag = "匿名用户"
)

type ReviewService struct {
	DB     *gorm.DB
	Cache  *cache.RatingCache
	Events events.Publisher
	Log    *zap.Logger
}

func NewReviewService(db *gorm.DB, rc *cache.RatingCache, pub events.Publisher, log *zap.Logger) *ReviewService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{DB: db, Cache: rc, Events: pub, Log: log}
}

type ReviewInput struct {
	BookingID uint
	Rating    int
	Comment   *string
}

// SubmitReview records the single review of a checked-out booking.
func (s *ReviewService) SubmitReview(ctx context.Context, actor *auth.Principal, in ReviewInput) (*models.BookingReview, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	var comment *string
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if utf8.RuneCountInString(c) > maxCommentLength {
			return nil, ErrCommentTooLong
		}
		if c != "" {
			comment = &c
		}
	}

	var review models.BookingReview
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBooking(tx, in.BookingID)
		if err != nil {
			return err
		}
		if b.CustomerID != actor.ID {
			return ErrForbidden.WithMessage("无权评价此订单")
		}
		if b.Status != models.BookingCheckedOut && b.Status != models.BookingCompleted {
			return ErrReviewNotAllowed
		}
		if b.IsReviewed {
			return ErrAlreadyReviewed
		}

		// flag flip is the guard against a concurrent second review
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND is_reviewed = ?", b.ID, false).
			Update("is_reviewed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrAlreadyReviewed
		}

		review = models.BookingReview{
			BookingID:  b.ID,
			StoreID:    b.StoreID,
			CustomerID: b.CustomerID,
			Rating:     in.Rating,
			Comment:    comment,
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, review.StoreID)
	ev := events.Event{
		Type:      events.ReviewSubmitted,
		BookingID: review.BookingID,
		StoreID:   review.StoreID,
		Actor:     string(models.RoleCustomer),
		At:        time.Now().UTC(),
		Data:      map[string]interface{}{"rating": review.Rating},
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Log.Warn("publish review event failed", zap.Uint("booking_id", review.BookingID), zap.Error(err))
	}
	return &review, nil
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

// StoreRating returns the mean rating rounded to one decimal. A store with
// no reviews has a nil AvgRating, never zero.
func (s *ReviewService) StoreRating(ctx context.Context, storeID uint) (cache.Rating, error) {
	if r, ok := s.Cache.Get(ctx, storeID); ok {
		return r, nil
	}
	var row struct {
		Avg   *float64
		Count int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.BookingReview{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Scan(&row).Error; err != nil {
		return cache.Rating{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	r := cache.Rating{ReviewCount: row.Count}
	if row.Count > 0 && row.Avg != nil {
		avg := roundOne(*row.Avg)
		r.AvgRating = &avg
	}
	s.Cache.Set(ctx, storeID, r)
	return r, nil
}

// reviewerName falls back from name to email to an anonymous label.
func reviewerName(c *models.Customer) string {
	if c == nil {
		return anonymousCustomerTag
	}
	if c.Name != nil && strings.TrimSpace(*c.Name) != "" {
		return *c.Name
	}
	if c.Email != "" {
		return c.Email
	}
	return anonymousCustomerTag
}

type ReviewItem struct {
	ID           uint      `json:"id"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment"`
	CustomerName string    `json:"customerName"`
	CheckIn      string    `json:"checkIn,omitempty"`
	CheckOut     string    `json:"checkOut,omitempty"`
	RoomType     string    `json:"roomType,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ReviewPage struct {
	Reviews     []ReviewItem `json:"reviews"`
	AvgRating   *float64     `json:"avgRating"`
	ReviewCount int64        `json:"reviewCount"`
	Page        int          `json:"page"`
	PageSize    int          `json:"pageSize"`
	TotalPages  int          `json:"totalPages"`
}

// ListStoreReviews pages through a store's reviews, newest first.
func (s *ReviewService) ListStoreReviews(ctx context.Context, storeID uint, page, pageSize int) (*ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultReviewPage
	}
	if pageSize > maxReviewPageSize {
		pageSize = maxReviewPageSize
	}

	var store models.Store
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_active = ?", storeID, true).First(&store).Error; err != nil {
		return nil, notFound(err, ErrStoreNotFound)
	}

	rating, err := s.StoreRating(ctx, storeID)
	if err != nil {
		return nil, err
	}

	var rows []models.BookingReview
	if err := s.DB.WithContext(ctx).
		Where("store_id = ?", storeID).
		Preload("Customer").
		Preload("Booking.RoomType").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	items := make([]ReviewItem, 0, len(rows))
	for _, r := range rows {
		item := ReviewItem{
			ID:           r.ID,
			Rating:       r.Rating,
			Comment:      r.Comment,
			CustomerName: reviewerName(r.Customer),
			CreatedAt:    r.CreatedAt,
		}
		if r.Booking != nil {
			item.CheckIn = utils.FormatDate(r.Booking.CheckIn)
			item.CheckOut = utils.FormatDate(r.Booking.CheckOut)
			if r.Booking.RoomType != nil {
				item.RoomType = r.Booking.RoomType.Name
			}
		}
		items = append(items, item)
	}

	return &ReviewPage{
		Reviews:     items,
		AvgRating:   rating.AvgRating,
		ReviewCount: rating.ReviewCount,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  int(math.Ceil(float64(rating.ReviewCount) / float64(pageSize))),
	}, nil
}
