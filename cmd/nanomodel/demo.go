package main

import (
	"github.com/arthur-debert/nanomodel/nanomodel"
)

// demoModels builds the sample blog: users and the posts they wrote.
func demoModels(opts ...nanomodel.Option) (users, posts *nanomodel.Model, err error) {
	users = nanomodel.New("User", nanomodel.Fields{
		{Name: "name", Type: nanomodel.String()},
		{Name: "handle", Type: nanomodel.String()},
		{Name: "bio", Type: nanomodel.String().WithDefault("No bio provided.")},
		{Name: "admin", Type: nanomodel.Boolean()},
	}, opts...)
	posts = nanomodel.New("Post", nanomodel.Fields{
		{Name: "title", Type: nanomodel.String()},
		{Name: "content", Type: nanomodel.String().WithDefault("No content provided.")},
		{Name: "likes", Type: nanomodel.Number()},
		{Name: "author", Type: nanomodel.Ref(users)},
	}, opts...)

	if _, err = users.Seed([]nanomodel.Data{
		{"name": "John Doe", "handle": "jdoe"},
		{"name": "Jane Doe", "handle": "jane", "bio": "Hi, I'm Jane Doe!", "admin": true},
	}); err != nil {
		return nil, nil, err
	}
	if _, err = posts.Seed([]nanomodel.Data{
		{"title": "Hello, World!", "content": "This is my first post!", "likes": 3, "author": 1},
		{"title": "Hello, API!", "content": "This is my first post, but the second post!", "likes": 10, "author": 2},
		{"title": "The Third Post", "content": "This is the third post!", "likes": 1, "author": 1},
	}); err != nil {
		return nil, nil, err
	}
	return users, posts, nil
}
