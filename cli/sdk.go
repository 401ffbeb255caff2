package cli

import "github.com/absmach/metricus/pkg/sdk"

var msdk sdk.SDK

func SetSDK(s sdk.SDK) {
	msdk = s
}
