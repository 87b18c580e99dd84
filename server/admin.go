package server

import (
	"net/http"

	"github.com/znsocket/znsocket-go/yamiddleware"
	"github.com/znsocket/znsocket-go/yarsa"
	"github.com/gin-gonic/gin"
)

const adminAuthHeader = "X-ZnSocket-Admin"
const adminAuthContextKey = "znsocket_admin_claim"

// AdminClaim is the payload an operator's tooling must RSA-encrypt into the
// adminAuthHeader to reach /debug/stats — just enough to audit who asked.
type AdminClaim struct {
	Actor string `json:"actor"`
}

// Stats is the /debug/stats response body: a coarse census of live server
// state, useful for an operator without exposing key contents.
type Stats struct {
	Rooms    int `json:"rooms"`
	Adapters int `json:"adapters"`
	Sockets  int `json:"sockets"`
}

// registerAdmin mounts /debug/stats behind an RSA-encrypted header gate.
// The server's private key is deterministically derived from
// cfg.AdapterSecret so a restart does not silently lock every operator out.
func (s *Server[T]) registerAdmin(engine *gin.Engine) {
	key, err := yarsa.GenerateDeterministicRSAPrivateKey(yarsa.KeyOpts{
		Bits: 2048,
		Seed: []byte(s.cfg.AdapterSecret),
	})
	if err != nil {
		s.log.Errorf("admin surface disabled: failed to derive RSA key: %s", err.Error())

		return
	}

	auth := yamiddleware.NewEncodeRSA[AdminClaim](adminAuthHeader, adminAuthContextKey, key)

	group := engine.Group("/debug")
	group.Use(auth.Handle)

	group.GET("/stats", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, Stats{
			Rooms:    s.rooms.Count(),
			Adapters: s.adapters.Count(),
			Sockets:  s.hub.Count(),
		})
	})
}
