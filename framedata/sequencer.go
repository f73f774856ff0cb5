package framedata

import (
	"context"

	"go.viam.com/rgbdframe/logging"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// Sequencer processes frames one after the other. Each frame is prepared in a working Frame and
// promoted to the current Frame only once it is complete, so a failed frame never replaces
// the last good one.
type Sequencer struct {
	filter   FilterConfig
	matching keypoints.MatchingConfig
	logger   logging.Logger
	working  *Frame
	current  *Frame
	matches  []keypoints.DescriptorMatch
}

// NewSequencer returns a sequencer whose frames use collab and are pruned with filter.
func NewSequencer(collab Collaborators, filter FilterConfig, logger logging.Logger) (*Sequencer, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewBlankLogger("sequencer")
	}
	return &Sequencer{
		filter:   filter,
		matching: keypoints.MatchingConfig{DoCrossCheck: true},
		logger:   logger,
		working:  NewFrame(collab, logger.Sublogger("working")),
		current:  NewFrame(collab, logger.Sublogger("current")),
	}, nil
}

// SetMatchingConfig changes how the features of consecutive frames are matched.
func (s *Sequencer) SetMatchingConfig(cfg keypoints.MatchingConfig) {
	s.matching = cfg
}

// Matches returns the matches between the features of the current frame (Idx2) and those of the
// frame it replaced (Idx1). It is empty after the first frame.
func (s *Sequencer) Matches() []keypoints.DescriptorMatch {
	return s.matches
}

// Current returns the last frame successfully processed.
func (s *Sequencer) Current() *Frame {
	return s.current
}

// Advance loads frame id with its depth, detects and filters its features, then makes it the
// current frame. It returns the number of features kept. On error the current frame is
// unchanged.
func (s *Sequencer) Advance(ctx context.Context, id int) (int, error) {
	if err := s.prepare(ctx, id); err != nil {
		s.working.ReleaseData()
		return 0, err
	}
	matches, err := keypoints.MatchFeatures(s.current.Features(), s.working.Features(), &s.matching)
	if err != nil {
		s.working.ReleaseData()
		return 0, err
	}
	s.matches = matches
	s.current.AssignData(s.working)
	s.logger.Debugw("frame ready", "frame", id, "features", s.current.FeatureCount(), "matches", len(matches))
	return s.current.FeatureCount(), nil
}

func (s *Sequencer) prepare(ctx context.Context, id int) error {
	if err := s.working.LoadImage(ctx, id); err != nil {
		return err
	}
	if err := s.working.LoadDepthData(ctx); err != nil {
		return err
	}
	detected, err := s.working.ComputeFeatures(ctx)
	if err != nil {
		return err
	}
	kept, err := s.working.RemoveInvalidFeatures(s.filter)
	if err != nil {
		return err
	}
	s.logger.Debugw("features filtered", "frame", id, "detected", detected, "kept", kept)
	return nil
}

// Close releases both frames.
func (s *Sequencer) Close() {
	s.working.ReleaseData()
	s.current.ReleaseData()
	s.matches = nil
}
