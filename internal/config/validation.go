package config

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site),
		validation.Field(&c.Build),
		validation.Field(&c.Render),
		validation.Field(&c.Watch),
		validation.Field(&c.Events),
	)
}

// Validate implements validation.Validatable.
func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.BaseURL, is.URL),
		validation.Field(&s.Language, validation.Length(0, 35)),
	)
}

// Validate implements validation.Validatable.
func (b BuildConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Workers, validation.Min(0)),
		validation.Field(&b.Permalink, validation.By(permalinkRule)),
		validation.Field(&b.Timezone, validation.By(timezoneRule)),
	)
}

// Validate implements validation.Validatable.
func (r RenderConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SummaryLength, validation.Required, validation.Min(1)),
		validation.Field(&r.PageSize, validation.Required, validation.Min(1)),
		validation.Field(&r.FeedSize, validation.Min(0)),
		validation.Field(&r.RelatedLimit, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (w WatchConfig) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&w.Interval, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (e EventsConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Subject, validation.When(e.NATSURL != "", validation.Required)),
	)
}

func permalinkRule(value any) error {
	p, _ := value.(string)
	if strings.TrimSpace(p) == "" {
		return nil
	}
	if !strings.Contains(p, ":slug") && !strings.Contains(p, ":id") {
		return errors.New("must contain :slug or :id")
	}
	return nil
}

func timezoneRule(value any) error {
	tz, _ := value.(string)
	if _, err := time.LoadLocation(tz); err != nil {
		return errors.New("unknown time zone")
	}
	return nil
}
