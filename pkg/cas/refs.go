package cas

import (
	"context"
	"io"
	"io/ioutil"
	"strings"

	"github.com/strataconf/strata/pkg/cas/status"
	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/model"
	storagestatus "github.com/strataconf/strata/pkg/storage/status"
	"go.uber.org/zap"
)

// ResolveRef returns the head commit key recorded for a layer
func (s *defaultStore) ResolveRef(ctx context.Context, layer model.LayerID) (Key, error) {
	if err := layer.Validate(); err != nil {
		return Key{}, err
	}
	pth := model.GetRefPathToLayer(layer)

	rdr, err := s.backend.Get(ctx, pth)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return Key{}, status.ErrRefNotFound.WrapMessage("layer %v", layer)
		}
		return Key{}, err
	}
	defer func() { _ = rdr.Close() }()

	raw, err := ioutil.ReadAll(io.LimitReader(rdr, KeySizeHex+2))
	if err != nil {
		return Key{}, err
	}
	key, err := KeyFromString(strings.TrimSpace(string(raw)))
	if err != nil {
		return Key{}, status.ErrInvalidRef.WrapWithLog(s.l, err, zap.Stringer("layer", layer))
	}
	return key, nil
}

// ListRefs enumerates every layer with a recorded head, in precedence order
func (s *defaultStore) ListRefs(ctx context.Context) ([]model.LayerID, error) {
	keys, _, err := s.backend.KeysPrefix(ctx, "", model.GetRefPathPrefixToLayers(), "", 0)
	if err != nil {
		return nil, err
	}

	layers := make([]model.LayerID, 0, len(keys))
	for _, pth := range keys {
		layer, err := model.GetReferencePathComponents(pth)
		if err != nil {
			// tolerate foreign entries under the reference namespace
			s.l.Warn("skipping unrecognized reference", zap.String("path", pth), zap.Error(err))
			continue
		}
		layers = append(layers, layer)
	}
	model.SortLayers(layers)
	return layers, nil
}
