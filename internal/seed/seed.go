package seed

import (
	"context"
	"fmt"
	"log"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

const batchSize = 500

// Options configures the seeder.
type Options struct {
	Users            int
	VideosPerUser    int
	CommentsPerVideo int
	TweetsPerUser    int
	// LikeRatio is the chance a user likes another channel's video.
	// Comments and tweets are liked at half that rate.
	LikeRatio      float64
	SubscribeRatio float64
	MaxDays        int
	BcryptCost     int
	RandSeed       int64
}

// DefaultOptions matches the "demo" preset.
func DefaultOptions() Options {
	return Options{
		Users:            25,
		VideosPerUser:    6,
		CommentsPerVideo: 4,
		TweetsPerUser:    3,
		LikeRatio:        0.2,
		SubscribeRatio:   0.3,
	}
}

// Summary counts the rows a run created.
type Summary struct {
	Users         int
	Videos        int
	Comments      int
	Tweets        int
	Likes         int
	Subscriptions int
}

// Seeder populates the database with demo channels.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Like{},
		&models.Comment{},
		&models.WatchHistoryEntry{},
		&models.Subscription{},
		&models.Tweet{},
		&models.Video{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	log.Println("✓ existing data cleared")
	return nil
}

// Run seeds users, their videos and tweets, then the engagement between them,
// all inside one transaction.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Users <= 0 {
		return nil, fmt.Errorf("seed requires at least one user")
	}

	summary := &Summary{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := NewFactory(tx, opts)
		if err != nil {
			return err
		}

		users := make([]*models.User, 0, opts.Users)
		for range opts.Users {
			u, err := f.CreateUser()
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			users = append(users, u)
		}
		summary.Users = len(users)
		log.Printf("✓ %d users created", summary.Users)

		videos, err := seedVideos(tx, f, users, opts.VideosPerUser)
		if err != nil {
			return err
		}
		summary.Videos = len(videos)
		log.Printf("✓ %d videos created", summary.Videos)

		comments, err := seedComments(tx, f, users, videos, opts.CommentsPerVideo)
		if err != nil {
			return err
		}
		summary.Comments = len(comments)

		tweets := make([]*models.Tweet, 0, len(users)*opts.TweetsPerUser)
		for _, u := range users {
			for range opts.TweetsPerUser {
				t, err := f.CreateTweet(u)
				if err != nil {
					return fmt.Errorf("create tweet: %w", err)
				}
				tweets = append(tweets, t)
			}
		}
		summary.Tweets = len(tweets)
		log.Printf("✓ %d comments and %d tweets created", summary.Comments, summary.Tweets)

		summary.Likes, err = seedLikes(tx, f, users, videos, comments, tweets, opts.LikeRatio)
		if err != nil {
			return err
		}
		summary.Subscriptions, err = seedSubscriptions(tx, f, users, opts.SubscribeRatio)
		if err != nil {
			return err
		}
		log.Printf("✓ %d likes and %d subscriptions created", summary.Likes, summary.Subscriptions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func seedVideos(tx *gorm.DB, f *Factory, users []*models.User, perUser int) ([]*models.Video, error) {
	videos := make([]*models.Video, 0, len(users)*perUser)
	for _, u := range users {
		for range perUser {
			videos = append(videos, f.BuildVideo(u))
		}
	}
	if len(videos) == 0 {
		return videos, nil
	}
	if err := tx.CreateInBatches(videos, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create videos: %w", err)
	}

	// is_published has a column default, so false is skipped on insert.
	var drafts []uint
	for _, v := range videos {
		if !v.IsPublished {
			drafts = append(drafts, v.ID)
		}
	}
	if len(drafts) > 0 {
		if err := tx.Model(&models.Video{}).Where("id IN ?", drafts).Update("is_published", false).Error; err != nil {
			return nil, fmt.Errorf("mark drafts: %w", err)
		}
	}
	return videos, nil
}

func seedComments(tx *gorm.DB, f *Factory, users []*models.User, videos []*models.Video, perVideo int) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0, len(videos)*perVideo)
	for _, v := range videos {
		for range perVideo {
			author := users[f.faker.Number(0, len(users)-1)]
			comments = append(comments, f.BuildComment(author, v))
		}
	}
	if len(comments) == 0 {
		return comments, nil
	}
	if err := tx.CreateInBatches(comments, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create comments: %w", err)
	}
	return comments, nil
}

func seedLikes(
	tx *gorm.DB,
	f *Factory,
	users []*models.User,
	videos []*models.Video,
	comments []*models.Comment,
	tweets []*models.Tweet,
	ratio float64,
) (int, error) {
	var likes []*models.Like
	add := func(userID uint, target models.LikeTarget, targetID uint) error {
		like, err := models.NewLike(userID, target, targetID)
		if err != nil {
			return err
		}
		likes = append(likes, like)
		return nil
	}

	for _, u := range users {
		for _, v := range videos {
			if v.OwnerID != u.ID && f.chance(ratio) {
				if err := add(u.ID, models.LikeTargetVideo, v.ID); err != nil {
					return 0, err
				}
			}
		}
		for _, c := range comments {
			if c.OwnerID != u.ID && f.chance(ratio/2) {
				if err := add(u.ID, models.LikeTargetComment, c.ID); err != nil {
					return 0, err
				}
			}
		}
		for _, t := range tweets {
			if t.OwnerID != u.ID && f.chance(ratio/2) {
				if err := add(u.ID, models.LikeTargetTweet, t.ID); err != nil {
					return 0, err
				}
			}
		}
	}

	if len(likes) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(likes, batchSize).Error; err != nil {
		return 0, fmt.Errorf("create likes: %w", err)
	}
	return len(likes), nil
}

func seedSubscriptions(tx *gorm.DB, f *Factory, users []*models.User, ratio float64) (int, error) {
	var subs []*models.Subscription
	for _, subscriber := range users {
		for _, channel := range users {
			if subscriber.ID != channel.ID && f.chance(ratio) {
				subs = append(subs, &models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID})
			}
		}
	}
	if len(subs) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(subs, batchSize).Error; err != nil {
		return 0, fmt.Errorf("create subscriptions: %w", err)
	}
	return len(subs), nil
}
