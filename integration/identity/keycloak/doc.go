// Package keycloak revokes upstream identity-provider sessions during logout.
//
// Client.Logout posts the refresh token to the realm's RP-initiated logout
// endpoint. Provider adapts it to the lifecycle controller's IdentityProvider
// contract:
//
//	client, err := keycloak.NewClient(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	ctrl, err := lifecycle.New(store,
//		lifecycle.WithIdentityProvider(keycloak.NewProvider(client, tokenSource)),
//	)
//
// A sign-out failure is logged by the controller and never blocks local
// cleanup; the Keycloak session then dies on its own idle timeout.
package keycloak
