// Package git is the release pipeline's facade over go-git.
//
// It covers exactly what releasing needs: opening the project repository,
// staging and committing the version bump, creating and inspecting annotated
// version tags, pushing or deleting tags on a remote, listing remote tags and
// walking the commits between two revisions for release notes.
//
// All repository state is reached through the fs.Filesystem abstraction, so
// the same code runs against the working copy on disk and against in-memory
// repositories in tests:
//
//	repo, err := git.Open(ctx, &git.Options{
//	    FS:     billyfs.NewOSFS(projectDir),
//	    Auth:   git.NewTokenAuth(token),
//	    Tagger: &git.Signature{Name: "Release Bot", Email: "release@example.com"},
//	})
//	if err != nil {
//	    return err
//	}
//	if err := repo.CreateTag(ctx, "v1.3.0", "HEAD", "WeatherVoting v1.3.0", true); err != nil {
//	    return err
//	}
//	return repo.PushTag(ctx, git.DefaultRemoteName, "v1.3.0")
//
// Errors wrap the sentinel values in errors.go and can be matched with
// errors.Is.
package git
