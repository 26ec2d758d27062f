package notifications

import "github.com/TheCreeper/go-notify"

func (s *Service) SetShow(show func(*notify.Notification) error) {
	s.show = show
}
