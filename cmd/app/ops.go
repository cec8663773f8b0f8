package main

import (
	"context"
	"net/http"
)

func doRegister(ctx context.Context, cfg cliConfig, username, email, password string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.register", map[string]any{
			"username": username,
			"email":    email,
			"password": password,
		}, out)
	}
	client := newAPIClient(cfg.Server, "")
	return client.request(ctx, http.MethodPost, "/api/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	}, out)
}

func doLogin(ctx context.Context, cfg cliConfig, email, password string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.login", map[string]any{
			"email":    email,
			"password": password,
		}, out)
	}
	client := newAPIClient(cfg.Server, "")
	return client.request(ctx, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, out)
}

func doWhoAmI(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "auth.whoami", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/auth/whoami", nil, out)
}

func doFeedList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "feed.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/posts", nil, out)
}

func doPostsCreate(ctx context.Context, cfg cliConfig, caption, mediaRef string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "posts.create", map[string]any{"token": cfg.Token, "caption": caption, "media_ref": mediaRef}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/posts", map[string]any{"caption": caption, "media_ref": mediaRef}, out)
}

func doPostsLike(ctx context.Context, cfg cliConfig, postID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "posts.like", map[string]any{"token": cfg.Token, "post_id": postID}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/posts/"+postID+"/like", nil, out)
}

func doPostsComment(ctx context.Context, cfg cliConfig, postID, text string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "posts.comment", map[string]any{"token": cfg.Token, "post_id": postID, "text": text}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/posts/"+postID+"/comments", map[string]any{"text": text}, out)
}

func doUsersList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "users.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/users", nil, out)
}

func doUsersGet(ctx context.Context, cfg cliConfig, userID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "users.get", map[string]any{"token": cfg.Token, "user_id": userID}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/users/"+userID, nil, out)
}

func doUsersFollow(ctx context.Context, cfg cliConfig, userID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "users.follow", map[string]any{"token": cfg.Token, "user_id": userID}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/users/"+userID+"/follow", nil, out)
}

func doNotificationsList(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "notifications.list", map[string]any{"token": cfg.Token}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/notifications", nil, out)
}

func doNotificationsRead(ctx context.Context, cfg cliConfig, id string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "notifications.read", map[string]any{"token": cfg.Token, "notification_id": id}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/notifications/"+id+"/read", nil, out)
}

func doMessagesSend(ctx context.Context, cfg cliConfig, receiverID, text string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "messages.send", map[string]any{"token": cfg.Token, "receiver_id": receiverID, "text": text}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodPost, "/api/messages", map[string]any{"receiver_id": receiverID, "text": text}, out)
}

func doMessagesList(ctx context.Context, cfg cliConfig, peerID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "messages.list", map[string]any{"token": cfg.Token, "peer_id": peerID}, out)
	}
	client := newAPIClient(cfg.Server, cfg.Token)
	return client.request(ctx, http.MethodGet, "/api/messages/"+peerID, nil, out)
}
