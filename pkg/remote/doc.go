// Package remote sends event packets to an event server.
//
// A Sender owns an ephemeral UDP socket and a client token. Payloads larger
// than one packet are split into fragments automatically.
//
//	s, err := remote.Dial(ctx, "127.0.0.1:9777", remote.Options{})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.Helo("Remote1", protocol.IconNone, nil)
//	s.Action(protocol.ActionExecBuiltin, "PlayerControl(Play)")
//	s.Bye()
package remote
