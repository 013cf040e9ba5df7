package serviceregistry

import (
	"github.com/forgecore/enginecore/internal/assetstore"
	"github.com/forgecore/enginecore/internal/enginerr"
	"github.com/forgecore/enginecore/internal/wire"
)

// serviceImporterAdapter implements assetstore.Importer by calling back
// into a registered service's Call method and decoding the result with
// the wire v1 envelope. It is constructed once per asset_importer-kind
// registration and captures the service id, method, output type id and
// format at that point; each Import looks the service up again through
// Registry.Call.
type serviceImporterAdapter struct {
	registry     *Registry
	serviceID    string
	method       string
	outputTypeID string
	format       string
}

func (a *serviceImporterAdapter) OutputTypeID() string { return a.outputTypeID }

func (a *serviceImporterAdapter) Import(bytes []byte, key assetstore.AssetKey) (*assetstore.AssetBlob, error) {
	resp, err := a.registry.Call(a.serviceID, a.method, bytes)
	if err != nil {
		return nil, enginerr.ImporterFailed(err.Error())
	}

	env, err := wire.Decode(resp)
	if err != nil {
		return nil, enginerr.ImporterFailed("wire decode: " + err.Error())
	}

	return &assetstore.AssetBlob{
		TypeID:   a.outputTypeID,
		Format:   a.format,
		Payload:  env.Payload,
		MetaJSON: env.MetaJSON,
	}, nil
}

// AutoRegisterImporter inspects svc's already-parsed descriptor and, if
// its Kind is exactly "asset_importer", builds a serviceImporterAdapter
// and installs it into store under every declared extension. Returns
// false (no error) if svc is not an asset importer. Unsupported wire
// tags are rejected as InvalidInput, since the bridge only knows how to
// decode WireV1.
func AutoRegisterImporter(store *assetstore.Store, registry *Registry, svcID string) (bool, error) {
	entry, ok := registry.GetEntry(svcID)
	if !ok {
		return false, enginerr.NotFound(svcID, "service not found")
	}
	if entry.Descriptor.Kind != "asset_importer" {
		return false, nil
	}

	ai := entry.Descriptor.AssetImporter
	if ai == nil {
		return false, enginerr.InvalidInput("service " + svcID + " declares kind=asset_importer with no asset_importer descriptor")
	}
	if ai.Wire != WireV1 {
		return false, enginerr.InvalidInput("service " + svcID + " declares unsupported wire tag " + ai.Wire)
	}

	adapter := &serviceImporterAdapter{
		registry:     registry,
		serviceID:    svcID,
		method:       ai.Method,
		outputTypeID: ai.OutputTypeID,
		format:       ai.Format,
	}

	for _, ext := range ai.Extensions {
		store.AddImporter(ext, adapter, ai.Priority, svcID)
	}
	return true, nil
}
