// Package interaction implements the KRAC link interaction model.
//
// The interaction model defines the operations between a bridge and a
// device:
//
//   - Status: Read the current attribute values of a capability
//   - Command: Invoke a capability command with positional arguments
//   - Subscribe: Register for change notifications
//   - Execute: Perform a raw OCF resource write (href + properties)
//   - Info: Read device identity and the component/capability tree
//   - Ping: Check connection liveness
//
// # Server Usage
//
// The Server handles incoming requests and dispatches them to the
// device model:
//
//	device := model.NewDevice("device-123", "Room AC", "Samsung", modelID, "1.0")
//	server := interaction.NewServer(device)
//
//	// Handle incoming request
//	response := server.HandleRequest(ctx, request)
//
//	// The server also manages subscriptions and sends notifications
//	server.SetNotificationHandler(func(notif *wire.Notification) {
//	    // Send notification to the bridge
//	})
//	go server.Run(ctx, 0)
//
// # Client Usage
//
// The Client provides a high-level API for making requests:
//
//	client := interaction.NewClient(conn)
//
//	// Read attribute values
//	values, err := client.Status(ctx, "main", "switch")
//
//	// Invoke a command
//	result, err := client.Command(ctx, "main", "switch", "on", nil)
//
//	// Subscribe to changes
//	subID, initial, err := client.Subscribe(ctx, nil)
//
//	// Raw resource write
//	result, err = client.Execute(ctx, "/mode/vs/0", args)
//
// # Subscription Management
//
// Subscriptions have three key behaviors:
//
//  1. Priming Report: The subscribe response contains the current
//     values of all observed capabilities
//  2. Delta Notifications: Only changed attributes are sent afterwards
//  3. Heartbeat: If no changes occur within maxInterval, current values
//     are re-sent
//
// Subscriptions are connection-scoped. When a connection is closed, all
// subscriptions for that connection must be cleaned up via Close.
package interaction
