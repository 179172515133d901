package main

import (
	"fmt"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/ospackage"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/system"
)

var detectOsDistribution = system.DetectOsDistribution

// loadAttributes reads the attribute file and fills in the platform from the
// running host when the file declares none.
func loadAttributes(path string) (*config.Attributes, error) {
	attrs, err := config.LoadAttributes(path)
	if err != nil {
		return nil, err
	}
	if !attrs.Platform.IsEmpty() {
		return attrs, nil
	}

	dist, err := detectOsDistribution()
	if err != nil {
		return nil, fmt.Errorf("no platform in %s and host detection failed: %w", path, err)
	}
	family, err := ospackage.FamilyForPlatform(dist.ID, dist.IDLike)
	if err != nil {
		return nil, err
	}
	attrs.Platform = config.PlatformInfo{Name: dist.ID, Version: dist.Version, Family: string(family)}
	logger.Logger().Infof("using detected platform %s %s (%s)", dist.ID, dist.Version, family)
	return attrs, nil
}
