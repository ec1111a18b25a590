package multisig

import (
	"github.com/tendermint/go-amino"
)

// cdc is the serialization codec of this extension. All models and
// messages persisted or transported by this package are amino encoded.
var cdc = amino.NewCodec()
