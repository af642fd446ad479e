// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"vidtube/internal/auth"
	"vidtube/internal/models"
	"vidtube/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded user.
const DefaultPassword = "password123"

var sampleVideos = []string{
	"https://storage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4",
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	maxDays  int
	password string
	seq      int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	randSeed := opts.RandSeed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}

	// Hash once; every seeded account shares the same password.
	hashed, err := auth.NewPasswordHasher(opts.BcryptCost).Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}

	return &Factory{
		db:       db,
		faker:    gofakeit.New(randSeed),
		maxDays:  maxDays,
		password: hashed,
	}, nil
}

// pastTime returns a random instant within the last maxDays days.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// slug keeps only lowercase letters and digits, capped at n bytes.
func slug(s string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s.%s%d", slug(first, 10), slug(last, 10), f.seq)
	if err := validation.ValidateUsername(username); err != nil {
		username = fmt.Sprintf("user%d", f.seq)
	}
	created := f.pastTime()

	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		FullName:   first + " " + last,
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		CoverImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/300", f.faker.UUID()),
		Password:   f.password,
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildVideo constructs a video for owner without persisting it.
func (f *Factory) BuildVideo(owner *models.User, overrides ...func(*models.Video)) *models.Video {
	created := f.pastTime()
	video := &models.Video{
		VideoFile:   sampleVideos[f.faker.Number(0, len(sampleVideos)-1)],
		Thumbnail:   fmt.Sprintf("https://picsum.photos/seed/%s/640/360", f.faker.UUID()),
		Title:       f.faker.Sentence(f.faker.Number(3, 8)),
		Description: f.faker.Paragraph(1, 3, 12, "\n"),
		Views:       int64(f.faker.Number(0, 50000)),
		IsPublished: f.faker.Number(1, 10) > 1,
		OwnerID:     owner.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, override := range overrides {
		override(video)
	}
	return video
}

// CreateVideosBatch persists multiple videos in a single DB call.
func (f *Factory) CreateVideosBatch(videos []*models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	return f.db.Create(&videos).Error
}

// BuildComment constructs a comment by user on video without persisting it.
func (f *Factory) BuildComment(user *models.User, video *models.Video, overrides ...func(*models.Comment)) *models.Comment {
	comment := &models.Comment{
		Content: f.faker.Sentence(f.faker.Number(4, 20)),
		VideoID: video.ID,
		OwnerID: user.ID,
	}
	for _, override := range overrides {
		override(comment)
	}
	return comment
}

// CreateComment persists a comment by user on video.
func (f *Factory) CreateComment(user *models.User, video *models.Video, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := f.BuildComment(user, video, overrides...)
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateTweet persists a tweet on user's channel.
func (f *Factory) CreateTweet(user *models.User, overrides ...func(*models.Tweet)) (*models.Tweet, error) {
	tweet := &models.Tweet{
		Content: f.faker.HipsterSentence(f.faker.Number(5, 16)),
		OwnerID: user.ID,
	}
	for _, override := range overrides {
		override(tweet)
	}
	if err := f.db.Create(tweet).Error; err != nil {
		return nil, err
	}
	return tweet, nil
}

// CreateLike persists a like by user on the target.
func (f *Factory) CreateLike(user *models.User, target models.LikeTarget, targetID uint) error {
	like, err := models.NewLike(user.ID, target, targetID)
	if err != nil {
		return err
	}
	return f.db.Create(like).Error
}

// CreateSubscription subscribes subscriber to channel.
func (f *Factory) CreateSubscription(subscriber, channel *models.User) error {
	if subscriber.ID == channel.ID {
		return fmt.Errorf("user %d cannot subscribe to their own channel", subscriber.ID)
	}
	return f.db.Create(&models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID}).Error
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return f.faker.Float64Range(0, 1) < p
}
